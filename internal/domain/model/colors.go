package model

// NameColor 正規化済み（小文字）の地域名と割り当てられた色
type NameColor struct {
	Name  string `json:"name" firestore:"name"`
	Color string `json:"color" firestore:"color"`
}

// NameShare セル内の地域名ごとの色と割合
type NameShare struct {
	Name       string `json:"name"`
	Color      string `json:"color"`
	Percentage int    `json:"percentage"`
}

// BlendRequest POST /colors/blend のリクエスト
type BlendRequest struct {
	Colors []string `json:"colors"`
}

// BlendResponse POST /colors/blend のレスポンス
type BlendResponse struct {
	Color string `json:"color"`
}
