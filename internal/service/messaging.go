package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	apperrors "github.com/openclaw/wa-gateway-go/internal/errors"
	"github.com/openclaw/wa-gateway-go/internal/model"
	"github.com/openclaw/wa-gateway-go/internal/util"
	"github.com/openclaw/wa-gateway-go/internal/waclient"
)

// ReadyClientRunner gives access to the live client while connected.
type ReadyClientRunner interface {
	WithReadyClient(ctx context.Context, fn func(waclient.Client) error) error
}

type MediaFetcher interface {
	Resolve(ctx context.Context, url string) (*model.MediaPayload, error)
}

type GroupMembersResult struct {
	Group   model.GroupRef
	Members []model.MemberSummary
}

type MessagingService struct {
	clients ReadyClientRunner
	media   MediaFetcher
}

func NewMessagingService(clients ReadyClientRunner, media MediaFetcher) *MessagingService {
	return &MessagingService{
		clients: clients,
		media:   media,
	}
}

// Send delivers a text or media message to a phone number.
func (s *MessagingService) Send(ctx context.Context, req model.SendRequest) (*model.SendResult, error) {
	var result *model.SendResult
	err := s.clients.WithReadyClient(ctx, func(client waclient.Client) error {
		msg, err := s.buildOutbound(ctx, req)
		if err != nil {
			return err
		}

		sent, err := client.SendMessage(ctx, *msg)
		if err != nil {
			log.Error().Err(err).Str("to", msg.To).Msg("failed to send message")
			return apperrors.Upstream(err)
		}

		log.Info().
			Str("messageId", sent.ID).
			Str("to", msg.To).
			Bool("media", msg.Media != nil).
			Msg("message sent")

		result = &model.SendResult{
			MessageID: sent.ID,
			Phone:     req.Phone,
			Timestamp: sent.Timestamp,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *MessagingService) buildOutbound(ctx context.Context, req model.SendRequest) (*model.OutboundMessage, error) {
	digits := util.DigitsOnly(req.Phone)
	if digits == "" {
		return nil, apperrors.InvalidInput("phone", "a phone number is required")
	}
	mediaURL := strings.TrimSpace(req.MediaURL)
	if req.Message == "" && mediaURL == "" {
		return nil, apperrors.InvalidInput("message", "message or media_url is required")
	}

	msg := &model.OutboundMessage{
		To:   waclient.UserID(digits),
		Text: req.Message,
	}
	if mediaURL == "" {
		return msg, nil
	}

	payload, err := s.media.Resolve(ctx, mediaURL)
	if err != nil {
		return nil, err
	}
	msg.Media = payload
	msg.Kind = model.ParseMediaKind(req.MediaType)
	if msg.Kind.CarriesCaption() {
		msg.Caption = req.Caption
		if msg.Caption == "" {
			msg.Caption = req.Message
		}
	}
	return msg, nil
}

// Contacts lists registered, non-group contacts other than the account itself.
func (s *MessagingService) Contacts(ctx context.Context) ([]model.ContactSummary, error) {
	var summaries []model.ContactSummary
	err := s.clients.WithReadyClient(ctx, func(client waclient.Client) error {
		contacts, err := client.GetContacts(ctx)
		if err != nil {
			log.Error().Err(err).Msg("failed to list contacts")
			return apperrors.Upstream(err)
		}

		summaries = make([]model.ContactSummary, 0, len(contacts))
		for i := range contacts {
			c := &contacts[i]
			if c.IsMe || c.IsGroup || !c.IsRegistered {
				continue
			}
			summaries = append(summaries, model.ContactSummary{
				ID:        c.ID,
				Name:      c.DisplayName(),
				Number:    contactNumber(c),
				IsGroup:   c.IsGroup,
				IsBlocked: c.IsBlocked,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

func (s *MessagingService) Groups(ctx context.Context) ([]model.GroupSummary, error) {
	var groups []model.GroupSummary
	err := s.clients.WithReadyClient(ctx, func(client waclient.Client) error {
		chats, err := client.GetChats(ctx)
		if err != nil {
			log.Error().Err(err).Msg("failed to list chats")
			return apperrors.Upstream(err)
		}

		groups = make([]model.GroupSummary, 0, len(chats))
		for _, chat := range chats {
			if !chat.IsGroup {
				continue
			}
			groups = append(groups, model.GroupSummary{
				ID:                chat.ID,
				Name:              chat.Name,
				ParticipantsCount: len(chat.Participants),
				IsGroup:           true,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return groups, nil
}

// GroupMembers lists a group's participants. Lookup failures and non-group
// chats are reported as NotFound.
func (s *MessagingService) GroupMembers(ctx context.Context, groupID string) (*GroupMembersResult, error) {
	id := NormalizeGroupID(groupID)
	if id == "" {
		return nil, apperrors.NotFound("Group")
	}

	var result *GroupMembersResult
	err := s.clients.WithReadyClient(ctx, func(client waclient.Client) error {
		chat, err := client.GetChatByID(ctx, id)
		if err != nil {
			log.Warn().Err(err).Str("groupId", id).Msg("group lookup failed")
			return apperrors.NotFound("Group")
		}
		if chat == nil || !chat.IsGroup {
			return apperrors.NotFound("Group")
		}

		members := make([]model.MemberSummary, 0, len(chat.Participants))
		for _, p := range chat.Participants {
			contact, err := client.GetContactByID(ctx, p.ID)
			if err != nil {
				log.Warn().Err(err).Str("participant", p.ID).Msg("contact lookup failed")
				contact = nil
			}
			members = append(members, model.MemberSummary{
				ID:      p.ID,
				Name:    contact.DisplayName(),
				Number:  util.UserPart(p.ID),
				IsAdmin: p.IsAdmin || p.IsSuperAdmin,
			})
		}

		result = &GroupMembersResult{
			Group:   model.GroupRef{ID: chat.ID, Name: chat.Name},
			Members: members,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// NormalizeGroupID appends the group server to a bare group id.
func NormalizeGroupID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || strings.Contains(id, "@") {
		return id
	}
	return id + "@" + waclient.GroupServer
}

func contactNumber(c *model.Contact) string {
	if c.Number != "" {
		return c.Number
	}
	return util.UserPart(c.ID)
}
