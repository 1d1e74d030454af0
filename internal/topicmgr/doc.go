// Package topicmgr keeps the catalogue of pub/sub topics used by the server.
//
// Topics are declared once as package-level values with DefineFramework or
// DefineModule and registered with a Manager at startup:
//
//	var TopicViewUpdated = topicmgr.DefineModule(topicmgr.TopicConfig{
//		Name:        "investments.view.updated",
//		Module:      "investments",
//		Description: "Rendered rows for one live view",
//	})
//
// Framework topics belong to shared infrastructure (the websocket bridge,
// server lifecycle) and must use one of the framework prefixes. Module
// topics must be prefixed with their module name.
package topicmgr
