package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"telegram-reminder-bot/internal/config"
	"telegram-reminder-bot/internal/conversation"
	"telegram-reminder-bot/internal/handlers"
	"telegram-reminder-bot/internal/logx"
	"telegram-reminder-bot/internal/messages"
	"telegram-reminder-bot/internal/scheduler"
	"telegram-reminder-bot/internal/storage"
	"telegram-reminder-bot/internal/timeparse"
	"telegram-reminder-bot/internal/utils"
)

func main() {
	cfg, err := config.Load() // BOT_AUTH_TOKEN etc.
	utils.Must(err)

	logger := logx.New(cfg.LogLevel, cfg.LogConsole)
	log.Logger = logger

	bot, err := tgbotapi.NewBotAPIWithClient(cfg.TelegramToken, tgbotapi.APIEndpoint, &http.Client{Timeout: cfg.HTTPTimeout})
	utils.Must(err)
	logger.Info().Str("bot", bot.Self.UserName).Msg("authorized")

	var store conversation.Store = conversation.NewMemoryStore()
	if cfg.StateDB != "" {
		db, err := storage.New(cfg.StateDB)
		utils.Must(err)
		defer db.Close()
		store = db
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := clockwork.NewRealClock()
	sender := messages.NewLimited(bot, cfg.SendRate)

	disp := scheduler.NewDispatcher(clock, messages.Deliver(sender), cfg.HTTPTimeout, logger)
	dispDone := make(chan struct{})
	go func() {
		defer close(dispDone)
		_ = disp.Run(ctx)
	}()

	machine := conversation.NewMachine(store, disp, timeparse.Parser{MaxRelative: cfg.MaxRelative}, logger)

	janitor, err := scheduler.StartJanitor(clock, machine, scheduler.JanitorConfig{
		Interval: cfg.SweepInterval,
		TTL:      cfg.StateTTL,
	}, logger)
	utils.Must(err)

	utils.LogFor(handlers.RegisterCommands(sender), "register bot commands")

	h := handlers.NewHandler(sender, machine, clock, logger)

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := bot.GetUpdatesChan(updateConfig)

	h.Listen(ctx, updates)
	bot.StopReceivingUpdates()

	utils.LogFor(janitor.Shutdown(), "stop janitor")
	stop()
	<-dispDone
	if n := disp.Pending(); n > 0 {
		logger.Warn().Int("pending", n).Msg("shutting down with undelivered reminders")
	}
	logger.Info().Msg("bye")
}
