package ws

import "encoding/json"

const (
	channelAllMids      = "allMids"
	channelPong         = "pong"
	channelSubscription = "subscriptionResponse"
	channelError        = "error"

	connectionEstablished = "Websocket connection established."
)

type subscribeRequest struct {
	Method       string              `json:"method"`
	Subscription allMidsSubscription `json:"subscription"`
}

type allMidsSubscription struct {
	Type string `json:"type"`
	Dex  string `json:"dex,omitempty"`
}

type pingRequest struct {
	Method string `json:"method"`
}

// envelope is the outer frame of every channel message.
type envelope struct {
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

// AllMidsMessage contains all mid-prices
type AllMidsMessage struct {
	Mids map[string]string `json:"mids"`
}
