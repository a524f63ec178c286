package llm

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

// Block is one typed unit of a model reply. Text is only set for "text" blocks.
type Block struct {
	Type string
	Text string
}

type Response struct {
	Blocks       []Block
	Model        string
	StopReason   string
	InputTokens  int64
	OutputTokens int64
}

// NoResponse is substituted when a reply carries no text block.
const NoResponse = "No response"

// Text returns the first text block of the reply, or NoResponse.
func (r *Response) Text() string {
	if r == nil {
		return NoResponse
	}
	return FirstText(r.Blocks)
}

func FirstText(blocks []Block) string {
	for _, b := range blocks {
		if b.Type == "text" {
			return b.Text
		}
	}
	return NoResponse
}
