package recipe

import "strings"

// imageKind 圖片輸入類型（用於日誌記錄，不輸出內容）
func imageKind(image string) string {
	switch {
	case image == "":
		return "none"
	case strings.HasPrefix(image, "http://"), strings.HasPrefix(image, "https://"):
		return "url"
	case strings.HasPrefix(image, "data:image/"):
		if head, _, ok := strings.Cut(image, ";base64,"); ok {
			return "data_uri_" + strings.TrimPrefix(head, "data:image/")
		}
		return "invalid_data_uri"
	default:
		return "unknown_format"
	}
}
