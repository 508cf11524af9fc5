package medium

// API response shapes for the Medium content API.

type articleInfo struct {
	Title       string   `json:"title"`
	Subtitle    string   `json:"subtitle"`
	Author      string   `json:"author"`
	PublishedAt string   `json:"published_at"`
	ImageURL    string   `json:"image_url"`
	Tags        []string `json:"tags"`
	URL         string   `json:"url"`
}

type markdownResponse struct {
	Markdown string `json:"markdown"`
}

type assetEmbed struct {
	Href  string `json:"href"`
	Title string `json:"title"`
}

type assetsResponse struct {
	Assets struct {
		Images      []string                `json:"images"`
		YouTube     []assetEmbed            `json:"youtube"`
		OtherEmbeds map[string][]assetEmbed `json:"other_embeds"`
	} `json:"assets"`
}

type userInfo struct {
	Fullname string `json:"fullname"`
	Username string `json:"username"`
}

// fetchPayload carries everything Fetch gathered for Parse.
type fetchPayload struct {
	ArticleID string
	Info      articleInfo
	Markdown  string
	Assets    assetsResponse
	Author    *userInfo
}
