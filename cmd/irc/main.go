package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/whyrusleeping/hellabot"

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
		return err
	}
	botName := config.GetStringOrDefault("botName", "pictor")
	roomName := config.GetStringOrDefault("roomName", "pictor")
	serverName := config.GetStringOrDefault("serverName", "irc.euirc.net:6667")
	publishPath := config.GetStringOrDefault("publishPath", "published")
	pictor := api.NewAPI(config)
	defer pictor.Stop()
	if err := pictor.LoadError(); err != nil {
		fmt.Println("failed to load preferences, using defaults:", err)
	}
	ircBot, err := hbot.NewBot(serverName, botName, func(bot *hbot.Bot) {
		bot.SSL = config.GetBooleanOrDefault("useSSL", false)
	})
	if err != nil {
		return err
	}
	var trigger = hbot.Trigger{
		Condition: func(b *hbot.Bot, m *hbot.Message) bool {
			return true
		},
		Action: func(b *hbot.Bot, m *hbot.Message) bool {
			if m.Command != "PRIVMSG" {
				return true
			}
			if !strings.HasPrefix(strings.ToLower(m.Content), strings.ToLower(botName)) {
				return true
			}
			what := strings.TrimSpace(m.Content[len(botName):])
			if len(what) == 0 || len(m.To) == 0 || m.To[0] != '#' {
				return false
			}
			if what[0] == ',' || what[0] == ':' {
				what = strings.TrimSpace(what[1:])
			}
			reply := handleChatCommand(pictor, publishPath, what)
			if reply != "" {
				b.Reply(m, m.From+" "+reply)
			}
			return true
		},
	}
	ircBot.AddTrigger(trigger)
	ircBot.Channels = []string{"#" + roomName}
	ircBot.Run()
	return nil
}

func handleChatCommand(pictor api.API, publishPath, what string) string {
	command, argument, _ := strings.Cut(what, " ")
	argument = common.RemoveQuotesIfAny(strings.TrimSpace(argument))
	switch strings.ToLower(command) {
	case "draw":
		handle, err := pictor.Generate(argument)
		return awaitImage(handle, err, publishPath)
	case "redraw":
		handle, err := pictor.Regenerate()
		return awaitImage(handle, err, publishPath)
	case "describe":
		handle, err := pictor.Describe(argument)
		if err != nil {
			return "can't do: " + err.Error()
		}
		result := handle.Wait()
		if result.Failed() {
			return "can't do: " + result.Err.Error()
		}
		return truncate(result.Description, 400)
	case "inspire":
		seed, err := pictor.InspirePrompt()
		if err != nil {
			return "can't do: " + err.Error()
		}
		return seed
	case "models":
		var names []string
		for _, option := range pictor.ModelOptions() {
			names = append(names, option.DisplayName)
		}
		return strings.Join(names, ", ")
	case "reset":
		pictor.Reset()
		return "cleared"
	default:
		return "commands: draw <prompt>, redraw, describe <url>, inspire, models, reset"
	}
}

// awaitImage blocks until the request terminates and publishes the image as a file the channel
// members can reach, since IRC can't carry the image itself.
func awaitImage(handle *domain.RequestHandle, err error, publishPath string) string {
	if err != nil {
		return "can't do: " + err.Error()
	}
	result := handle.Wait()
	if result.Failed() {
		return "can't do: " + result.Err.Error()
	}
	mkdirErr := os.MkdirAll(publishPath, 0755)
	if mkdirErr != nil {
		return "can't publish: " + mkdirErr.Error()
	}
	imagePath := filepath.Join(publishPath, fmt.Sprintf("pictor-%d.png", time.Now().UnixMilli()))
	saveErr := result.Image.SaveTo(imagePath)
	if saveErr != nil {
		return "can't publish: " + saveErr.Error()
	}
	return "done: " + imagePath
}

func truncate(str string, maxLength int) string {
	if len(str) <= maxLength {
		return str
	}
	return str[:maxLength] + "..."
}
