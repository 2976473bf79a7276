package code

// Success code
var (
	Success = NewSuss(200, lang{en: "Success", zh_cn: "成功"})
)

// Common errors 10000xx
var (
	ErrorInvalidParams = NewError(1000001, lang{en: "Invalid request parameters", zh_cn: "请求参数错误"})
	ErrorNetwork       = NewError(1000002, lang{en: "Network request failed", zh_cn: "网络请求失败"})
	ErrorUnauthorized  = NewError(1000003, lang{en: "Not authorized to perform this action", zh_cn: "无权执行此操作"})
	ErrorNotFound      = NewError(1000004, lang{en: "Resource not found", zh_cn: "资源不存在"})
	ErrorConflict      = NewError(1000005, lang{en: "Resource state has changed, refresh and retry", zh_cn: "资源状态已变更，请刷新后重试"})
)

// Share errors 20010xx
var (
	ErrorShareNotFound       = NewError(2001001, lang{en: "Share not found", zh_cn: "借阅记录不存在"})
	ErrorShareTerminal       = NewError(2001002, lang{en: "Share is in a terminal state", zh_cn: "借阅已结束，无法变更状态"})
	ErrorShareTransition     = NewError(2001003, lang{en: "Status transition not permitted", zh_cn: "不允许的状态变更"})
	ErrorShareAlreadyDispute = NewError(2001004, lang{en: "Share is already disputed", zh_cn: "借阅已处于争议状态"})
	ErrorShareNotArchivable  = NewError(2001005, lang{en: "Only completed shares can be archived", zh_cn: "仅已完结的借阅可归档"})
)

// Chat errors 20020xx
var (
	ErrorChatMessageEmpty   = NewError(2002001, lang{en: "Message content cannot be empty", zh_cn: "消息内容不能为空"})
	ErrorChatMessageTooLong = NewError(2002002, lang{en: "Message content exceeds 2000 characters", zh_cn: "消息内容超过 2000 字符"})
	ErrorChatSendThrottled  = NewError(2002003, lang{en: "Sending messages too fast", zh_cn: "消息发送过于频繁"})
)

// Realtime channel errors 20040xx
var (
	ErrorAuthenticationMissing = NewError(2004001, lang{en: "Authentication token not found", zh_cn: "未找到认证令牌"})
	ErrorNotConnected          = NewError(2004002, lang{en: "Realtime channel is not connected", zh_cn: "实时通道未连接"})
	ErrorTransportFailure      = NewError(2004003, lang{en: "Realtime channel reconnect attempts exhausted", zh_cn: "实时通道重连次数已用尽"})
)
