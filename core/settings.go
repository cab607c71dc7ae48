package core

// Settings represents the main configuration of a chart session
type Settings struct {
	Pair      string           // Trading pair rendered by the session
	Timeframe string           // Candle timeframe, eg: 1m, 15m, 1h, 1d
	Preload   int              // Number of historical candles loaded before going live
	Telegram  TelegramSettings // Telegram notification settings
}

// TelegramSettings holds configuration for Telegram integration
type TelegramSettings struct {
	Enabled bool   // Whether Telegram notifications are enabled
	Token   string // Telegram bot token
	Users   []int  // List of authorized user IDs
}
