package main

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/webb-rtk/shintek/internal/application"
	"github.com/webb-rtk/shintek/internal/domain/model"
	"github.com/webb-rtk/shintek/internal/domain/ports/adapter"
	ai "github.com/webb-rtk/shintek/internal/infra/adapters/ai"
	infraTelegram "github.com/webb-rtk/shintek/internal/infra/adapters/telegram"
	"github.com/webb-rtk/shintek/internal/infra/roles"
	"github.com/webb-rtk/shintek/internal/usecase"
)

// Offline walkthrough of the conversation flow: no Telegram connection, no
// AI provider. Useful for poking at role precedence and session lifecycles.
func main() {
	ctx := context.Background()
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

	dir, err := os.MkdirTemp("", "chat-demo-*")
	if err != nil {
		log.Fatalf("temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	roleStore := roles.NewFileStore(filepath.Join(dir, "roles.json"), "noop")
	roleUC := usecase.NewRoleUseCase(roleStore, &logger)
	sessionUC := usecase.NewSessionUseCase(30*time.Minute, &logger)
	chatUC := usecase.NewChatUseCase(sessionUC, roleUC, ai.NewNoopAIAdapter(), &logger)
	facade := application.NewBotFacade(chatUC, roleUC)

	var out adapter.MessengerAdapter = infraTelegram.NewNoopBotAdapter()
	chatID := int64(555000111)
	ident := usecase.Identity{UserID: "555000111", BotID: "demo_bot"}

	deliver := func(reply string, err error) {
		if err != nil {
			log.Printf("turn failed: %v", err)
			return
		}
		if err := out.SendText(ctx, chatID, reply); err != nil {
			log.Printf("delivery failed: %v", err)
		}
	}

	// Add a second persona so the role switch does something.
	err = roleUC.CreateRole(ctx, "pirate", &model.RoleProfile{
		Name:  "Pirate",
		Model: "noop",
		SystemPrompt: model.SeedPrompt{
			User:  "Speak like a pirate.",
			Model: "Arr, aye aye.",
		},
	})
	if err != nil {
		log.Fatalf("create role: %v", err)
	}

	deliver(facade.HandleStart(ctx, ident))
	deliver(facade.HandleText(ctx, ident, "Hello there"))
	deliver(facade.HandleRoles(ctx))
	deliver(facade.HandleSetRole(ctx, ident, "pirate"))
	deliver(facade.HandleWhoAmI(ctx, ident))
	deliver(facade.HandleText(ctx, ident, "Where is the treasure?"))
	deliver(facade.HandleSticker(ctx, ident))
	deliver(facade.HandleReset(ident), nil)

	stats := sessionUC.Stats()
	log.Printf("sessions after demo: total=%d active=%d", stats.Total, stats.Active)
}
