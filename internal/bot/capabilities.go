package bot

import (
	"strconv"
	"strings"

	"github.com/cplounge/ranksync/internal/domain"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
)

// service.Messenger implementation.

func (b *Bot) SendDirect(userID int64, text string) error {
	channel, err := b.session.UserChannelCreate(strconv.FormatInt(userID, 10))
	if err != nil {
		return errors.Wrap(err, "create dm channel")
	}
	if _, err := b.session.ChannelMessageSend(channel.ID, text); err != nil {
		return errors.Wrap(err, "send dm")
	}
	return nil
}

func (b *Bot) SendToChannel(channelID int64, text string) error {
	if _, err := b.session.ChannelMessageSend(strconv.FormatInt(channelID, 10), text); err != nil {
		return errors.Wrap(err, "send channel message")
	}
	return nil
}

// service.RoleBridge implementation.

func (b *Bot) Ready() error {
	if !b.ready.Load() {
		return domain.ErrGuildUnavailable
	}
	if _, err := b.guild(); err != nil {
		return domain.ErrGuildUnavailable
	}
	return nil
}

func (b *Bot) Grant(userID int64, roleName string) error {
	guild, err := b.guild()
	if err != nil {
		return domain.ErrGuildUnavailable
	}

	var roleID string
	for _, role := range guild.Roles {
		if strings.EqualFold(role.Name, roleName) {
			roleID = role.ID
			break
		}
	}
	if roleID == "" {
		return domain.ErrRoleNotFound
	}

	uid := strconv.FormatInt(userID, 10)
	if _, err := b.session.GuildMember(b.guildID, uid); err != nil {
		return domain.ErrMemberNotFound
	}

	if err := b.session.GuildMemberRoleAdd(b.guildID, uid, roleID); err != nil {
		return errors.Wrap(err, "add member role")
	}
	return nil
}

func (b *Bot) guild() (*discordgo.Guild, error) {
	if guild, err := b.session.State.Guild(b.guildID); err == nil {
		return guild, nil
	}
	return b.session.Guild(b.guildID)
}
