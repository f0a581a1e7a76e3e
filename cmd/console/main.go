package main

import (
	"fmt"
	"strings"

	"github.com/chzyer/readline"

	"pictorlab.dev/pictor/pkg/common"
	"pictorlab.dev/pictor/pkg/pictor/api"
	"pictorlab.dev/pictor/pkg/pictor/domain"
)

func main() {
	err := mainImpl()
	if err != nil {
		panic(err)
	}
}

func mainImpl() error {
	config, err := common.LoadConfig("config.yaml")
	if err != nil {
		// The console client should run without a config file: every key has a default.
		config = common.NewConfig()
	}
	pictor := api.NewAPI(config)
	defer pictor.Stop()
	if err := pictor.LoadError(); err != nil {
		fmt.Println("failed to load preferences, using defaults:", err)
	}
	rl, err := readline.New(promptString(pictor.Preferences().DarkTheme))
	if err != nil {
		return err
	}
	defer func() {
		_ = rl.Close()
	}()
	fmt.Println("Type a prompt to generate an image, or :help for commands.")
	var draft string
	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ":") {
			quit := runCommand(pictor, rl, line[1:], &draft)
			if quit {
				break
			}
		} else {
			draft = line
			submit(pictor.Generate(line))
		}
	}
	return nil
}

// runCommand covers every button of the original UI. Returns true when the user wants to quit.
func runCommand(pictor api.API, rl *readline.Instance, command string, draft *string) bool {
	name, argument := splitCommand(command)
	switch name {
	case "go":
		submit(pictor.Generate(*draft))
	case "regen":
		submit(pictor.Regenerate())
	case "save":
		if argument == "" {
			argument = "generated.png"
		}
		err := pictor.SaveImage(argument)
		if err != nil {
			fmt.Println("Error:", err)
		} else {
			fmt.Println("Saved to", argument)
		}
	case "describe":
		submit(pictor.Describe(common.RemoveQuotesIfAny(argument)))
	case "use":
		composed, err := pictor.UseContext(argument)
		if err != nil {
			fmt.Println("Error:", err)
			break
		}
		*draft = composed
		fmt.Println("Prompt:", composed)
		fmt.Println("(:go to generate it)")
	case "topic":
		summary, err := pictor.TopicSummary(argument)
		if err != nil {
			fmt.Println("Error:", err)
		} else {
			fmt.Println(summary)
			fmt.Println("(:use to compose it into the prompt)")
		}
	case "inspire":
		seed, err := pictor.InspirePrompt()
		if err != nil {
			fmt.Println("Error:", err)
		} else {
			*draft = seed
			fmt.Println("Prompt:", seed)
			fmt.Println("(:go to generate it)")
		}
	case "key":
		pictor.SetAPIKey(common.RemoveQuotesIfAny(argument))
		fmt.Println("API key updated")
	case "instruction":
		pictor.SetRecognitionPrompt(argument)
		fmt.Println("Recognition instruction updated")
	case "model":
		err := pictor.SelectModel(argument)
		if err != nil {
			fmt.Println("Error:", err)
		} else {
			fmt.Println("Model set to", argument)
		}
	case "models":
		selected := pictor.Preferences().SelectedModel
		for _, option := range pictor.ModelOptions() {
			marker := "  "
			if option.DisplayName == selected {
				marker = "* "
			}
			fmt.Println(marker + option.DisplayName)
		}
	case "theme":
		dark := pictor.ToggleDarkTheme()
		rl.SetPrompt(promptString(dark))
		if dark {
			fmt.Println("Dark theme on")
		} else {
			fmt.Println("Dark theme off")
		}
	case "reset":
		pictor.Reset()
		fmt.Println("State cleared")
	case "state":
		printState(pictor.State())
	case "help":
		printHelp()
	case "quit", "exit":
		return true
	default:
		fmt.Println("Unknown command:", name)
	}
	return false
}

// submit reports the lifecycle of one request: progress milestones, then the terminal result.
func submit(handle *domain.RequestHandle, err error) {
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	for value := range handle.Progress() {
		fmt.Printf("\r%3d%%", value)
	}
	fmt.Print("\r    \r")
	result := handle.Wait()
	switch {
	case result.Failed():
		fmt.Println("Error:", result.Err)
	case result.Image != nil:
		bounds := result.Image.Bitmap().Bounds()
		fmt.Printf("Generated a %dx%d image (:save <path> to save it)\n", bounds.Dx(), bounds.Dy())
	default:
		fmt.Println(result.Description)
		fmt.Println("(:use to compose it into the prompt)")
	}
}

func splitCommand(command string) (string, string) {
	name, argument, _ := strings.Cut(command, " ")
	return strings.ToLower(name), strings.TrimSpace(argument)
}

func printState(state domain.State) {
	fmt.Println("busy:          ", state.Busy)
	fmt.Println("last prompt:   ", state.LastPrompt)
	fmt.Println("description:   ", truncate(state.Description, 120))
	fmt.Println("has image:     ", state.HasImage)
	fmt.Println("can regenerate:", state.CanRegenerate)
	fmt.Println("can save:      ", state.CanSave)
	fmt.Println("can use ctx:   ", state.CanUseContext)
}

func printHelp() {
	fmt.Print(`<prompt>             generate an image from the prompt
:go                  generate from the current draft (set by :use/:inspire)
:regen               regenerate with the last prompt
:save [path]         save the current image (PNG or JPEG by extension)
:describe <path|url> describe an image file, image URL or page URL
:use [prompt]        compose the description into the prompt
:topic <subject>     fetch a topic summary as context
:inspire             build a prompt seed from a current headline
:key <api key>       set the API key
:instruction <text>  set the recognition instruction
:model <name>        select the generation model
:models              list available models
:theme               toggle dark theme
:reset               clear image, prompt and description
:state               show current state
:quit                exit
`)
}

func promptString(darkTheme bool) string {
	if darkTheme {
		return "\033[35m>\033[0m "
	}
	return "> "
}

func truncate(str string, maxLength int) string {
	if len(str) <= maxLength {
		return str
	}
	return str[:maxLength] + "..."
}
