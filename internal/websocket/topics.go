package websocket

import "github.com/nfrund/profitbridge/internal/topicmgr"

// MetaRecipientID is the metadata key naming the target connection of a
// direct message.
const MetaRecipientID = "recipient_id"

var (
	TopicHTMLBroadcast = topicmgr.DefineFramework(topicmgr.TopicConfig{
		Name:        "ws.html.broadcast",
		Description: "HTML fragment for every HTML websocket connection",
		Example:     `<div id="investments-rows" hx-swap-oob="true">...</div>`,
		Metadata:    map[string]any{"endpoint_type": "html", "routing_type": "broadcast"},
	})

	TopicHTMLDirect = topicmgr.DefineFramework(topicmgr.TopicConfig{
		Name:        "ws.html.direct",
		Description: "HTML fragment for one HTML websocket connection named by recipient_id",
		Example:     `<div id="investments-rows" hx-swap-oob="true">...</div>`,
		Metadata:    map[string]any{"endpoint_type": "html", "routing_type": "direct", "requires": []string{MetaRecipientID}},
	})

	TopicDataBroadcast = topicmgr.DefineFramework(topicmgr.TopicConfig{
		Name:        "ws.data.broadcast",
		Description: "JSON document for every data websocket connection",
		Example:     `{"type":"rows","rows":[]}`,
		Metadata:    map[string]any{"endpoint_type": "data", "routing_type": "broadcast"},
	})

	TopicDataDirect = topicmgr.DefineFramework(topicmgr.TopicConfig{
		Name:        "ws.data.direct",
		Description: "JSON document for one data websocket connection named by recipient_id",
		Example:     `{"type":"rows","rows":[]}`,
		Metadata:    map[string]any{"endpoint_type": "data", "routing_type": "direct", "requires": []string{MetaRecipientID}},
	})

	TopicClientReady = topicmgr.DefineFramework(topicmgr.TopicConfig{
		Name:        "ws.client.ready",
		Description: "A websocket connection was accepted and can receive messages",
		Example:     `{"endpoint":"html","connectionID":"4f0c..."}`,
	})

	TopicClientDisconnected = topicmgr.DefineFramework(topicmgr.TopicConfig{
		Name:        "ws.client.disconnected",
		Description: "A websocket connection closed",
		Example:     `{"endpoint":"html","connectionID":"4f0c...","reason":"client_closed"}`,
	})

	TopicClientMessage = topicmgr.DefineFramework(topicmgr.TopicConfig{
		Name:        "ws.client.message",
		Description: "A text frame received from a websocket connection; UserID carries the connection id",
		Example:     `{"type":"search","term":"alice"}`,
	})
)

// Topics returns every topic the bridge publishes or consumes.
func Topics() []topicmgr.Topic {
	return []topicmgr.Topic{
		TopicHTMLBroadcast,
		TopicHTMLDirect,
		TopicDataBroadcast,
		TopicDataDirect,
		TopicClientReady,
		TopicClientDisconnected,
		TopicClientMessage,
	}
}
