package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cplounge/ranksync/internal/domain"

	"github.com/bwmarrin/discordgo"
)

const commandTimeout = 45 * time.Second

func (b *Bot) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || b.services == nil {
		return
	}
	if !strings.HasPrefix(m.Content, b.cfg.CommandPrefix) {
		return
	}

	fields := strings.Fields(strings.TrimPrefix(m.Content, b.cfg.CommandPrefix))
	if len(fields) == 0 {
		return
	}
	command, args := strings.ToLower(fields[0]), fields[1:]

	userID, err := strconv.ParseInt(m.Author.ID, 10, 64)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	switch command {
	case "verify":
		if len(args) < 2 {
			b.reply(m, fmt.Sprintf("Usage: `%sverify <codeforces|codechef> <handle>`", b.cfg.CommandPrefix))
			return
		}
		b.handleVerify(ctx, m, userID, args[0], args[1])
	case "verifycf":
		if len(args) < 1 {
			b.reply(m, fmt.Sprintf("%s, please provide your Codeforces handle. Usage: `%sverifycf your_handle`", m.Author.Mention(), b.cfg.CommandPrefix))
			return
		}
		b.handleVerify(ctx, m, userID, string(domain.PlatformCodeforces), args[0])
	case "verifycc":
		if len(args) < 1 {
			b.reply(m, fmt.Sprintf("%s, please provide your CodeChef handle. Usage: `%sverifycc your_handle`", m.Author.Mention(), b.cfg.CommandPrefix))
			return
		}
		b.handleVerify(ctx, m, userID, string(domain.PlatformCodechef), args[0])
	case "unlink":
		if len(args) < 1 {
			b.reply(m, fmt.Sprintf("Usage: `%sunlink <codeforces|codechef>`", b.cfg.CommandPrefix))
			return
		}
		b.handleUnlink(ctx, m, userID, args[0])
	case "info":
		b.handleInfo(ctx, m, userID, args)
	case "help":
		b.reply(m, b.helpText())
	}
}

func (b *Bot) handleVerify(ctx context.Context, m *discordgo.MessageCreate, userID int64, platformArg, handle string) {
	// Verification is only accepted in the designated channel.
	if m.ChannelID != b.verifyChannelID {
		return
	}

	platform, err := domain.ParsePlatform(platformArg)
	if err != nil {
		b.reply(m, "Unknown platform. Use `codeforces` or `codechef`.")
		return
	}

	switch err := b.services.Verification.Start(ctx, platform, userID, handle); {
	case errors.Is(err, domain.ErrVerificationInFlight):
		b.reply(m, fmt.Sprintf("%s, you already have a verification in progress. Finish or wait for it to expire first.", m.Author.Mention()))
	case errors.Is(err, domain.ErrHandleTaken):
		b.reply(m, fmt.Sprintf("%s, the handle `%s` is already linked to another member.", m.Author.Mention(), handle))
	case err != nil:
		b.log.Errorw("verification start failed", "user_id", userID, "handle", handle, "error", err)
		b.reply(m, "Something went wrong starting verification. Try again later.")
	default:
		// Scrub the command so the channel does not fill up with
		// handle-claim messages.
		if err := b.session.ChannelMessageDelete(m.ChannelID, m.ID); err != nil {
			b.log.Debugw("command message delete failed", "channel_id", m.ChannelID, "error", err)
		}
		b.reply(m, fmt.Sprintf("%s, check your DMs for verification instructions.", m.Author.Mention()))
	}
}

func (b *Bot) handleUnlink(ctx context.Context, m *discordgo.MessageCreate, userID int64, platformArg string) {
	platform, err := domain.ParsePlatform(platformArg)
	if err != nil {
		b.reply(m, "Unknown platform. Use `codeforces` or `codechef`.")
		return
	}

	switch err := b.services.Identities.Unlink(ctx, platform, userID); {
	case errors.Is(err, domain.ErrNotFound):
		b.reply(m, fmt.Sprintf("%s, you have no linked %s handle.", m.Author.Mention(), platform))
	case err != nil:
		b.log.Errorw("unlink failed", "user_id", userID, "platform", platform, "error", err)
		b.reply(m, "Something went wrong. Try again later.")
	default:
		b.reply(m, fmt.Sprintf("%s, your %s handle has been unlinked.", m.Author.Mention(), platform))
	}
}

func (b *Bot) handleInfo(ctx context.Context, m *discordgo.MessageCreate, callerID int64, args []string) {
	platform := domain.PlatformCodeforces
	targetID := callerID
	target := m.Author

	for _, arg := range args {
		if p, err := domain.ParsePlatform(arg); err == nil {
			platform = p
		}
	}
	if len(m.Mentions) > 0 {
		target = m.Mentions[0]
		if id, err := strconv.ParseInt(target.ID, 10, 64); err == nil {
			targetID = id
		}
	}

	identity, err := b.services.Identities.Get(ctx, platform, targetID)
	if err != nil || !identity.Verified {
		b.reply(m, "User not found in the database.")
		return
	}

	stats, err := b.services.Identities.Stats(ctx, platform, identity.Handle)
	if err != nil {
		b.reply(m, fmt.Sprintf("Failed to fetch %s stats.", platform))
		return
	}

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("%s profile: %s", platformTitle(platform), identity.Handle),
		URL:   profileURL(platform, identity.Handle),
		Color: 0x3498db,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Tier", Value: stats.Tier, Inline: true},
			{Name: "Rating", Value: strconv.Itoa(stats.Rating), Inline: true},
		},
	}
	if target.Avatar != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: target.AvatarURL("")}
	}
	if stats.MaxRating > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Max Rating", Value: strconv.Itoa(stats.MaxRating), Inline: true})
	}
	if stats.Solved > 0 {
		embed.Fields = append(embed.Fields,
			&discordgo.MessageEmbedField{Name: "Questions Solved", Value: strconv.Itoa(stats.Solved), Inline: true},
			&discordgo.MessageEmbedField{Name: "Solved Last Week", Value: strconv.Itoa(stats.SolvedWeek), Inline: true},
			&discordgo.MessageEmbedField{Name: "Streak", Value: strconv.Itoa(stats.Streak), Inline: true},
		)
	}
	if stats.GlobalRank > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Global Rank", Value: strconv.Itoa(stats.GlobalRank), Inline: true})
	}

	if _, err := b.session.ChannelMessageSendEmbed(m.ChannelID, embed); err != nil {
		b.log.Warnw("info embed send failed", "error", err)
	}
}

func (b *Bot) reply(m *discordgo.MessageCreate, text string) {
	if _, err := b.session.ChannelMessageSend(m.ChannelID, text); err != nil {
		b.log.Warnw("reply failed", "channel_id", m.ChannelID, "error", err)
	}
}

func (b *Bot) helpText() string {
	p := b.cfg.CommandPrefix
	return fmt.Sprintf(
		"**Available Commands:**\n"+
			"- `%sverify <platform> <handle>`: link your Codeforces or CodeChef account\n"+
			"- `%sunlink <platform>`: remove your linked handle\n"+
			"- `%sinfo [@user] [platform]`: show profile stats\n"+
			"- `%shelp`: show this message", p, p, p, p)
}

func platformTitle(platform domain.Platform) string {
	switch platform {
	case domain.PlatformCodechef:
		return "CodeChef"
	default:
		return "Codeforces"
	}
}

func profileURL(platform domain.Platform, handle string) string {
	switch platform {
	case domain.PlatformCodechef:
		return "https://www.codechef.com/users/" + handle
	default:
		return "https://codeforces.com/profile/" + handle
	}
}
