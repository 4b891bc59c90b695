package ui

import (
	"context"
	"image"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ramops/bagdesk/internal/api"
	"github.com/ramops/bagdesk/internal/identity"
	"github.com/ramops/bagdesk/internal/journal"
)

// Messages

type tickMsg time.Time

type resumeMsg struct {
	principal identity.Principal
}

type signInMsg struct {
	gen       uint64
	badge     string
	principal identity.Principal
	err       error
}

type baggageMsg struct {
	gen uint64
	bag api.Baggage
	err error
}

type photoMsg struct {
	gen uint64
	ref string
	img image.Image
	err error
}

type actionMsg struct {
	gen uint64
	id  api.ID
	err error
}

type usersMsg struct {
	gen   uint64
	users []api.User
	err   error
}

type staffCreatedMsg struct {
	gen   uint64
	badge string
	err   error
}

type journalMsg struct {
	gen     uint64
	entries []journal.Entry
	err     error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// requestContext returns a constructor for the context bounding one
// user-triggered call. It is invoked inside the command so the timeout
// starts when the call does.
func (m Model) requestContext() func() (context.Context, context.CancelFunc) {
	parent, timeout := m.ctx, m.timeout
	return func() (context.Context, context.CancelFunc) {
		return context.WithTimeout(parent, timeout)
	}
}

func (m Model) signInCmd(badge, password string) tea.Cmd {
	gen, auth := m.gen, m.auth
	newCtx := m.requestContext()
	return func() tea.Msg {
		ctx, cancel := newCtx()
		defer cancel()
		p, err := auth.SignIn(ctx, badge, password)
		return signInMsg{gen: gen, badge: badge, principal: p, err: err}
	}
}

func (m Model) fetchBaggageCmd(id api.ID) tea.Cmd {
	gen, client := m.gen, m.api
	newCtx := m.requestContext()
	return func() tea.Msg {
		ctx, cancel := newCtx()
		defer cancel()
		bag, err := client.FetchBaggage(ctx, id)
		return baggageMsg{gen: gen, bag: bag, err: err}
	}
}

func (m Model) fetchPhotoCmd(ref string) tea.Cmd {
	gen, photos := m.gen, m.photos
	newCtx := m.requestContext()
	return func() tea.Msg {
		ctx, cancel := newCtx()
		defer cancel()
		img, err := photos.Fetch(ctx, ref)
		return photoMsg{gen: gen, ref: ref, img: img, err: err}
	}
}

// reportCmd flips a bag: lost bags are reported found, anything else lost.
func (m Model) reportCmd(bag api.Baggage) tea.Cmd {
	gen, client := m.gen, m.api
	newCtx := m.requestContext()
	lost := bag.State() == api.StatusLost
	return func() tea.Msg {
		ctx, cancel := newCtx()
		defer cancel()
		var err error
		if lost {
			err = client.ReportFound(ctx, bag.ID)
		} else {
			err = client.ReportLost(ctx, bag.ID)
		}
		return actionMsg{gen: gen, id: bag.ID, err: err}
	}
}

func (m Model) fetchUsersCmd() tea.Cmd {
	gen, client := m.gen, m.api
	newCtx := m.requestContext()
	return func() tea.Msg {
		ctx, cancel := newCtx()
		defer cancel()
		users, err := client.FetchUsers(ctx)
		return usersMsg{gen: gen, users: users, err: err}
	}
}

func (m Model) createStaffCmd(req api.StaffRequest) tea.Cmd {
	gen, client := m.gen, m.api
	newCtx := m.requestContext()
	return func() tea.Msg {
		ctx, cancel := newCtx()
		defer cancel()
		err := client.CreateStaff(ctx, req)
		return staffCreatedMsg{gen: gen, badge: req.Badge, err: err}
	}
}

func (m Model) loadJournalCmd() tea.Cmd {
	gen, path := m.gen, m.logPath
	return func() tea.Msg {
		entries, err := journal.Read(path, activityLines)
		return journalMsg{gen: gen, entries: entries, err: err}
	}
}
