package feishu

// Message 飞书消息
type Message interface {
	Type() string
	Content() interface{}
}

// TextMessage 文本消息
type TextMessage struct {
	text string
}

// NewTextMessage 创建文本消息
func NewTextMessage(text string) *TextMessage {
	return &TextMessage{text: text}
}

func (m *TextMessage) Type() string { return "text" }

func (m *TextMessage) Content() interface{} {
	return map[string]interface{}{"text": m.text}
}

// PostMessage 富文本消息
type PostMessage struct {
	title string
	lines [][]Element
}

// Element 富文本元素
type Element struct {
	Tag  string `json:"tag"`
	Text string `json:"text,omitempty"`
	Href string `json:"href,omitempty"`
}

// NewPostMessage 创建富文本消息
func NewPostMessage(title string) *PostMessage {
	return &PostMessage{title: title, lines: [][]Element{}}
}

// AddLine 添加一行
func (m *PostMessage) AddLine(elements ...Element) *PostMessage {
	m.lines = append(m.lines, elements)
	return m
}

// Lines 已添加的行
func (m *PostMessage) Lines() [][]Element {
	return m.lines
}

func (m *PostMessage) Type() string { return "post" }

func (m *PostMessage) Content() interface{} {
	return map[string]interface{}{
		"post": map[string]interface{}{
			"zh_cn": map[string]interface{}{
				"title":   m.title,
				"content": m.lines,
			},
		},
	}
}

// Text 文本元素
func Text(text string) Element {
	return Element{Tag: "text", Text: text}
}

// Link 链接元素
func Link(text, href string) Element {
	return Element{Tag: "a", Text: text, Href: href}
}
