// Package bot wires a Telegram bot to an AlphaWave completion loop.
//
// The HTTP entry point stays deliberately thin: TelegramAdapter parses the
// webhook update, forwards the message to a Handler, and sends the reply.
// Everything interesting (the wave loop, validation, persistence) lives
// behind the Handler interface. RunPolling offers a long-polling alternative
// for local use where no public webhook URL exists.
package bot
