package summarizer

// System prompts sent alongside each summarization tier. Keep updates
// centralized here so it is easy to tweak without hunting through call sites.
const (
	// VideoSystemPrompt frames single-video transcript summaries.
	VideoSystemPrompt = `You are an assistant specialized in creating concise, informative summaries of video content, listing the topics discussed in a clear way.`

	// ChannelSystemPrompt frames weekly per-channel rollups.
	ChannelSystemPrompt = `You are an assistant specialized in analyzing a channel's video content and identifying its recurring patterns and main themes.`

	// MasterSystemPrompt frames the cross-channel weekly digest.
	MasterSystemPrompt = `You are an expert in digital content analysis, able to identify trends and connections across different channels and topics.`
)

// Placeholders substituted into stored prompt templates before use. A
// placeholder whose value is empty is left untouched.
const (
	VideoTitlePlaceholder  = "%VIDEO_TITLE"
	ChannelNamePlaceholder = "%CHANNEL_NAME"
)
