package router

import (
	tg "github.com/roskarniz/regbot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

// nonTextEndpoints are message kinds that carry neither text nor a contact.
var nonTextEndpoints = map[string]string{
	tele.OnPhoto:     "photo",
	tele.OnDocument:  "document",
	tele.OnSticker:   "sticker",
	tele.OnVoice:     "voice",
	tele.OnVideo:     "video",
	tele.OnVideoNote: "video_note",
	tele.OnAudio:     "audio",
	tele.OnAnimation: "animation",
	tele.OnLocation:  "location",
	tele.OnVenue:     "venue",
	tele.OnPoll:      "poll",
	tele.OnDice:      "dice",
}

// MessageRoutes binds every private message kind the bot reacts to onto a
// single handler. Text (including unregistered commands), contacts and
// other media all reach it.
func MessageRoutes(handler tele.HandlerFunc) []tg.Route {
	if handler == nil {
		return nil
	}
	wrap := func(name string) tele.HandlerFunc { return wrapHandler(name, handler) }

	routes := []tg.Route{
		{Endpoint: tele.OnText, Handler: wrap("text")},
		{Endpoint: tele.OnContact, Handler: wrap("contact")},
	}
	for endpoint, name := range nonTextEndpoints {
		routes = append(routes, tg.Route{Endpoint: endpoint, Handler: wrap(name)})
	}
	return routes
}
