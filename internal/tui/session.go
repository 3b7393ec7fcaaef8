package tui

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/chatrise/internal/rpc"
	"github.com/matheus3301/chatrise/internal/tui/views"
)

func (a *App) submitAuth(req views.AuthRequest) {
	a.authView.ShowMessage("Signing in...")
	go func() {
		ctx, cancel := context.WithTimeout(a.ctx, callTimeout)
		defer cancel()

		var (
			token string
			err   error
		)
		if req.Mode == views.AuthRegister {
			token, err = a.vm.Register(ctx, req.Username, req.Email, req.Password)
		} else {
			token, err = a.vm.Login(ctx, req.Username, req.Password)
		}
		if err != nil {
			a.app.QueueUpdateDraw(func() { a.authView.ShowMessage(err.Error()) })
			return
		}
		if a.opts.SaveToken != nil {
			if err := a.opts.SaveToken(token); err != nil {
				a.logger.Warn("save token failed", zap.Error(err))
			}
		}
		a.enterSession()
	}()
}

// enterSession starts presence and live updates for the signed-in user.
func (a *App) enterSession() {
	if err := a.tracker.Start(a.ctx); err != nil {
		a.logger.Warn("presence tracker", zap.Error(err))
	}

	sessCtx, sessCancel := context.WithCancel(a.ctx)
	a.sessMu.Lock()
	a.sessCancel = sessCancel
	a.sessMu.Unlock()
	go a.watch(sessCtx)

	ctx, cancel := context.WithTimeout(sessCtx, callTimeout)
	defer cancel()
	a.reload(ctx)

	me := a.vm.GetMe()
	if me == nil {
		return
	}
	a.logger.Info("session started", zap.String("user_id", me.ID))
	a.app.QueueUpdateDraw(func() {
		a.thread.SetMe(me.ID)
		a.search.SetMe(me.ID)
		a.chatList.Update(a.vm.GetChats())
		a.updateAccount()
		a.pages.Reset(pageChats)
		a.app.SetFocus(a.chatList)
	})
}

func (a *App) logout() {
	a.sessMu.Lock()
	if a.sessCancel != nil {
		a.sessCancel()
		a.sessCancel = nil
	}
	a.sessMu.Unlock()

	a.tracker.Stop()
	a.async(func(ctx context.Context) error {
		err := a.vm.Logout(ctx)
		if a.opts.SaveToken != nil {
			_ = a.opts.SaveToken("")
		}
		a.app.QueueUpdateDraw(func() {
			a.authView.SetMode(views.AuthLogin)
			a.authView.ShowMessage("Signed out")
			a.updateAccount()
			a.pages.Reset(pageAuth)
			a.app.SetFocus(a.authView.Form())
		})
		return err
	})
}

// reload refreshes the chat list, contacts and online count.
func (a *App) reload(ctx context.Context) {
	if err := a.vm.LoadChats(ctx); err != nil {
		a.logger.Debug("load chats", zap.Error(err))
	}
	if err := a.vm.LoadContacts(ctx); err != nil {
		a.logger.Debug("load contacts", zap.Error(err))
	}
	if err := a.vm.LoadOnlineCount(ctx); err != nil {
		a.logger.Debug("load online count", zap.Error(err))
	}
}

// watch follows the server event stream until ctx ends, reconnecting on errors.
func (a *App) watch(ctx context.Context) {
	for ctx.Err() == nil {
		stream, err := a.client.Chat.WatchEvents(ctx, &rpc.WatchRequest{})
		if err == nil {
			a.setLive(true)
			for {
				ev, err := stream.Recv()
				if err != nil {
					a.logger.Debug("watch stream ended", zap.Error(err))
					break
				}
				a.handleEvent(ctx, ev)
			}
		}
		a.setLive(false)
		select {
		case <-ctx.Done():
			return
		case <-time.After(watchRetry):
		}
	}
}

func (a *App) setLive(live bool) {
	a.app.QueueUpdateDraw(func() { a.logo.SetLive(live) })
}

func (a *App) handleEvent(ctx context.Context, ev *rpc.Event) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	switch {
	case strings.HasPrefix(ev.Kind, "contact."):
		_ = a.vm.LoadContacts(ctx)
		if ev.Kind == "contact.requested" && ev.Contact != nil && ev.Contact.ToID == a.meID() {
			a.flash.Info("New contact request")
		}
	case strings.HasPrefix(ev.Kind, "presence."):
		_ = a.vm.LoadOnlineCount(ctx)
	case ev.Kind == resyncKind:
		a.logger.Info("event stream lagged, reloading")
		a.reload(ctx)
	}
	_ = a.vm.LoadChats(ctx)

	reloadThread := a.vm.Affects(ev)
	if reloadThread {
		_ = a.vm.LoadMessages(ctx, a.vm.GetActivePartner())
	}

	a.app.QueueUpdateDraw(func() {
		switch a.pages.Current() {
		case pageChats:
			a.chatList.Update(a.vm.GetChats())
		case pageContacts:
			a.contacts.Update(a.vm.GetContacts())
		case pageThread:
			if reloadThread {
				a.thread.Update(a.vm.GetMessages())
			}
		}
		a.updateAccount()
	})
}

func (a *App) meID() string {
	if me := a.vm.GetMe(); me != nil {
		return me.ID
	}
	return ""
}

func (a *App) startRefreshLoop() {
	ticker := time.NewTicker(refreshInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				a.app.QueueUpdateDraw(func() { a.flashBar.Update(a.flash.Current()) })
				if a.vm.GetMe() == nil {
					continue
				}
				ctx, cancel := context.WithTimeout(a.ctx, callTimeout)
				a.reload(ctx)
				cancel()
				a.app.QueueUpdateDraw(func() {
					if a.pages.Current() == pageChats {
						a.chatList.Update(a.vm.GetChats())
					}
					a.updateAccount()
				})
			case fm := <-a.flash.Watch():
				a.app.QueueUpdateDraw(func() { a.flashBar.Update(&fm) })
			case <-a.ctx.Done():
				return
			}
		}
	}()
}
