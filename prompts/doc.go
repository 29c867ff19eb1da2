// Package prompts holds the text that drives a two-role dialogue: the
// director and executor system messages, the blocks appended to relayed
// messages between turns, the opening prompt and the request clarifier.
//
// Every builder is deterministic: the same task and tool set always yield
// the same text.
package prompts
