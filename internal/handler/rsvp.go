package handler

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"

	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/whatsapp"
)

// Guests is the part of rsvp.Service the WhatsApp channel needs
type Guests interface {
	Lookup(ctx context.Context, phone, handle string) (models.LookupResult, error)
	Submit(ctx context.Context, sub models.Submission) (models.SubmitResult, error)
}

// Sender delivers a text message to a phone number
type Sender interface {
	SendMessage(ctx context.Context, phoneNumber, message string) error
}

type RSVPHandler struct {
	sender Sender
	guests Guests
	config *Config
	log    zerolog.Logger
}

type Config struct {
	FormURL         string
	CountryCode     string
	WeddingDate     string
	WeddingLocation string
	BrideName       string
	GroomName       string
}

type reply int

const (
	replyOther reply = iota
	replyAccept
	replyDecline
)

// NewRSVPHandler creates a new RSVP handler
func NewRSVPHandler(sender Sender, guests Guests, cfg *Config, log zerolog.Logger) *RSVPHandler {
	return &RSVPHandler{
		sender: sender,
		guests: guests,
		config: cfg,
		log:    log.With().Str("component", "Handler").Logger(),
	}
}

// HandleMessage answers a guest writing to the wedding number
func (h *RSVPHandler) HandleMessage(msg *events.Message) error {
	if msg.Message == nil {
		return nil
	}

	text := msg.Message.GetConversation()
	if text == "" {
		text = msg.Message.GetExtendedTextMessage().GetText()
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	// LID senders carry no phone number
	if msg.Info.Sender.Server != types.DefaultUserServer {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return h.handleText(ctx, msg.Info.Sender.User, text)
}

func (h *RSVPHandler) handleText(ctx context.Context, senderPhone, text string) error {
	guest, phone, err := h.findGuest(ctx, senderPhone)
	if err != nil {
		return err
	}
	if !guest.Found {
		h.log.Debug().Msg("Message from unknown number ignored")
		return nil
	}

	var message string
	switch classify(text) {
	case replyDecline:
		if _, err := h.guests.Submit(ctx, models.Submission{
			FirstName: guest.FirstName,
			LastName:  guest.LastName,
			Comes:     false,
			Email:     guest.Email,
		}); err != nil {
			return fmt.Errorf("failed to record decline: %w", err)
		}
		message = h.declineText(guest.FirstName)
	case replyAccept:
		message = h.acceptText(guest.FirstName, phone)
	default:
		message = h.greetingText(guest.FirstName, phone)
	}

	if err := h.sender.SendMessage(ctx, senderPhone, message); err != nil {
		return fmt.Errorf("failed to send reply: %w", err)
	}
	return nil
}

// findGuest looks the sender up in international form, then in national form
func (h *RSVPHandler) findGuest(ctx context.Context, senderPhone string) (models.LookupResult, string, error) {
	candidates := []string{"+" + senderPhone}
	if national := whatsapp.NationalNumber(senderPhone, h.config.CountryCode); national != "" {
		candidates = append(candidates, national)
	}

	for _, phone := range candidates {
		res, err := h.guests.Lookup(ctx, phone, "")
		if err != nil {
			return models.LookupResult{}, "", fmt.Errorf("failed to look up sender: %w", err)
		}
		if res.Found {
			return res, phone, nil
		}
	}
	return models.LookupResult{}, "", nil
}

// SendInvitation sends a wedding invitation to a guest
func (h *RSVPHandler) SendInvitation(ctx context.Context, phoneNumber, name string) error {
	if err := h.sender.SendMessage(ctx, phoneNumber, h.InvitationText(name, phoneNumber)); err != nil {
		return fmt.Errorf("failed to send invitation: %w", err)
	}
	return nil
}

// InvitationText is the invitation sent to name
func (h *RSVPHandler) InvitationText(name, phoneNumber string) string {
	return fmt.Sprintf(
		"🎉 *Wedding Invitation*\n\n"+
			"Dear %s,\n\n"+
			"You are cordially invited to celebrate the wedding of\n\n"+
			"*%s* & *%s*\n\n"+
			"📅 Date: %s\n"+
			"📍 Location: %s\n\n"+
			"Please let us know if you can come:\n%s",
		name, h.config.BrideName, h.config.GroomName,
		h.config.WeddingDate, h.config.WeddingLocation, h.formLink(phoneNumber),
	)
}

func (h *RSVPHandler) greetingText(firstName, phone string) string {
	return fmt.Sprintf(
		"Hello %s! 💕\n\n"+
			"%s & %s are getting married on %s at %s.\n\n"+
			"Your RSVP form is here:\n%s",
		firstName, h.config.BrideName, h.config.GroomName,
		h.config.WeddingDate, h.config.WeddingLocation, h.formLink(phone),
	)
}

func (h *RSVPHandler) acceptText(firstName, phone string) string {
	return fmt.Sprintf(
		"🎉 Wonderful, %s! We're so excited to celebrate with you.\n\n"+
			"Please tell us how many of you are coming here:\n%s",
		firstName, h.formLink(phone),
	)
}

func (h *RSVPHandler) declineText(firstName string) string {
	return fmt.Sprintf(
		"Thank you for letting us know, %s. We're sorry you won't be able to join us for the wedding of %s & %s.\n\n"+
			"We'll miss you! 💕",
		firstName, h.config.BrideName, h.config.GroomName,
	)
}

// formLink is the form URL with the phone prefilled for the lookup
func (h *RSVPHandler) formLink(phone string) string {
	u, err := url.Parse(h.config.FormURL)
	if err != nil || phone == "" {
		return h.config.FormURL
	}
	q := u.Query()
	q.Set("p", phone)
	u.RawQuery = q.Encode()
	return u.String()
}

var (
	// negations are declines only when nothing in the reply accepts:
	// "No problem, we will be there" is a yes.
	negations      = []string{"no", "non", "nope"}
	declineWords   = []string{"decline", "declining"}
	declinePhrases = []string{
		"not coming", "not attending", "can't come", "cannot come", "won't come",
		"can't make it", "won't be there", "can't attend", "pas venir", "❌",
	}
	acceptWords   = []string{"yes", "oui", "yep", "yeah", "accept", "accepting", "attending", "coming"}
	acceptPhrases = []string{"will come", "will be there", "✅"}
)

// classify reads a free-text reply. Explicit declines are checked first since
// "not coming" contains an acceptance word.
func classify(text string) reply {
	text = strings.ToLower(strings.TrimSpace(text))
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})

	switch {
	case containsAny(text, declinePhrases...) || hasWord(words, declineWords...):
		return replyDecline
	case containsAny(text, acceptPhrases...) || hasWord(words, acceptWords...):
		return replyAccept
	case hasWord(words, negations...):
		return replyDecline
	}
	return replyOther
}

// containsAny checks if the text contains any of the given keywords
func containsAny(text string, keywords ...string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

func hasWord(words []string, keywords ...string) bool {
	for _, w := range words {
		for _, k := range keywords {
			if w == k {
				return true
			}
		}
	}
	return false
}
