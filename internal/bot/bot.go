// Package bot is the Discord connector: it receives commands, sends
// messages, and grants roles. Everything the core services need from
// Discord goes through the Messenger and RoleBridge capabilities
// implemented here; nothing else in the repo imports discordgo.
package bot

import (
	"strconv"
	"sync/atomic"

	"github.com/cplounge/ranksync/internal/config"
	"github.com/cplounge/ranksync/internal/service"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Bot struct {
	session  *discordgo.Session
	cfg      config.Discord
	log      *zap.SugaredLogger
	services *service.Services

	guildID           string
	verifyChannelID   string
	announceChannelID string

	ready   atomic.Bool
	readyCh chan struct{}
}

func New(cfg config.Discord, log *zap.SugaredLogger) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, errors.Wrap(err, "create discord session")
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	return &Bot{
		session:           session,
		cfg:               cfg,
		log:               log,
		guildID:           strconv.FormatInt(cfg.GuildID, 10),
		verifyChannelID:   strconv.FormatInt(cfg.VerifyChannelID, 10),
		announceChannelID: strconv.FormatInt(cfg.AnnounceChannelID, 10),
		readyCh:           make(chan struct{}),
	}, nil
}

// SetServices wires the core services in. The bot is constructed
// first because the services receive it as their Messenger and
// RoleBridge.
func (b *Bot) SetServices(services *service.Services) {
	b.services = services
}

func (b *Bot) Start() error {
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onMessageCreate)

	if err := b.session.Open(); err != nil {
		return errors.Wrap(err, "open discord gateway")
	}
	return nil
}

func (b *Bot) Stop() error {
	return b.session.Close()
}

// Ready returns a channel closed once the gateway session has
// received its ready event. The reconciliation scheduler is gated on
// it.
func (b *Bot) ReadyC() <-chan struct{} {
	return b.readyCh
}

func (b *Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	if b.ready.CompareAndSwap(false, true) {
		b.log.Infow("discord gateway ready", "user", r.User.Username, "guilds", len(r.Guilds))
		close(b.readyCh)
	}
}
