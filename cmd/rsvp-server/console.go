package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"wedding-rsvp/internal/models"
)

type guestLister interface {
	Guests(ctx context.Context) ([]models.GuestRecord, error)
	GuestsByStatus(ctx context.Context, status models.RSVPStatus) ([]models.GuestRecord, error)
}

type inviter interface {
	SendInvitation(ctx context.Context, phoneNumber, name string) error
}

// console is the interactive menu on stdin for the couple
type console struct {
	scanner *bufio.Scanner
	out     io.Writer
	guests  guestLister
	inviter inviter
}

func newConsole(in io.Reader, out io.Writer, guests guestLister) *console {
	return &console{
		scanner: bufio.NewScanner(in),
		out:     out,
		guests:  guests,
	}
}

// run shows the menu until the user exits or input ends. It reports whether
// the user chose to exit.
func (c *console) run(ctx context.Context) bool {
	for {
		fmt.Fprintln(c.out, "\nCommands:")
		fmt.Fprintln(c.out, "  1. Send invitation")
		fmt.Fprintln(c.out, "  2. View all guests")
		fmt.Fprintln(c.out, "  3. View guests by status")
		fmt.Fprintln(c.out, "  4. Exit")
		fmt.Fprint(c.out, "\nEnter command (1-4): ")

		if !c.scanner.Scan() {
			return false
		}

		switch strings.TrimSpace(c.scanner.Text()) {
		case "1":
			c.sendInvitation(ctx)
		case "2":
			c.viewAllGuests(ctx)
		case "3":
			c.viewGuestsByStatus(ctx)
		case "4":
			fmt.Fprintln(c.out, "Exiting...")
			return true
		default:
			fmt.Fprintln(c.out, "Invalid command. Please try again.")
		}
	}
}

func (c *console) prompt(label string) (string, bool) {
	fmt.Fprint(c.out, label)
	if !c.scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(c.scanner.Text()), true
}

func (c *console) sendInvitation(ctx context.Context) {
	if c.inviter == nil {
		fmt.Fprintln(c.out, "WhatsApp is disabled, set WHATSAPP_ENABLED=true to send invitations.")
		return
	}

	name, ok := c.prompt("Enter guest name: ")
	if !ok {
		return
	}
	phoneNumber, ok := c.prompt("Enter phone number: ")
	if !ok {
		return
	}

	fmt.Fprintf(c.out, "\nSending invitation to %s (%s)...\n", name, phoneNumber)
	if err := c.inviter.SendInvitation(ctx, phoneNumber, name); err != nil {
		fmt.Fprintf(c.out, "❌ Error sending invitation: %v\n", err)
		return
	}
	fmt.Fprintln(c.out, "✅ Invitation sent successfully!")
}

func (c *console) viewAllGuests(ctx context.Context) {
	guests, err := c.guests.Guests(ctx)
	if err != nil {
		fmt.Fprintf(c.out, "❌ Error reading guests: %v\n", err)
		return
	}
	if len(guests) == 0 {
		fmt.Fprintln(c.out, "\nNo guests found.")
		return
	}

	fmt.Fprintf(c.out, "\n📋 All Guests (%d total):\n", len(guests))
	c.printGuests(guests)
}

func (c *console) viewGuestsByStatus(ctx context.Context) {
	fmt.Fprintln(c.out, "\nSelect status:")
	fmt.Fprintln(c.out, "  1. Pending")
	fmt.Fprintln(c.out, "  2. Confirmed")
	fmt.Fprintln(c.out, "  3. Declined")

	choice, ok := c.prompt("Enter choice (1-3): ")
	if !ok {
		return
	}

	var status models.RSVPStatus
	switch choice {
	case "1":
		status = models.RSVPPending
	case "2":
		status = models.RSVPConfirmed
	case "3":
		status = models.RSVPDeclined
	default:
		fmt.Fprintln(c.out, "Invalid choice.")
		return
	}

	guests, err := c.guests.GuestsByStatus(ctx, status)
	if err != nil {
		fmt.Fprintf(c.out, "❌ Error reading guests: %v\n", err)
		return
	}

	label := string(status)
	if status == models.RSVPPending {
		label = "Pending"
	}
	if len(guests) == 0 {
		fmt.Fprintf(c.out, "\nNo guests with status '%s'.\n", label)
		return
	}

	fmt.Fprintf(c.out, "\n📋 Guests with status '%s' (%d total):\n", label, len(guests))
	c.printGuests(guests)
}

func (c *console) printGuests(guests []models.GuestRecord) {
	fmt.Fprintln(c.out, strings.Repeat("-", 60))
	for _, g := range guests {
		fmt.Fprintf(c.out, "Name: %s %s\n", g.FirstName, g.LastName)
		if g.Phone != "" {
			fmt.Fprintf(c.out, "Phone: %s\n", g.Phone)
		}
		if g.RSVPStatus != models.RSVPPending {
			fmt.Fprintf(c.out, "Status: %s (%d guests)\n", g.RSVPStatus, g.GuestCount)
		} else {
			fmt.Fprintln(c.out, "Status: Pending")
		}
		if !g.RespondedAt.IsZero() {
			fmt.Fprintf(c.out, "RSVP Date: %s\n", g.RespondedAt.Format("2006-01-02 15:04:05"))
		}
		fmt.Fprintln(c.out, strings.Repeat("-", 60))
	}
}
