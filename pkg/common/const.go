package common

const (
	// Cache key formats.
	KEY_RAW_ANALYSIS = "raw_analysis:%s:%s"
	KEY_USER_STATE   = "tg_user_state:%d"
)

const (
	KEY_LOG_HOOK_SEND_ALERT = "send_alert"
)
