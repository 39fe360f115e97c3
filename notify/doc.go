// Package notify implements the Notifier contract on the LINE Messaging API:
// reply spends a one-time token against /v2/bot/message/reply, meeting
// notices are pushed to a fixed group target as a flex card.
package notify
