package services

import "strings"

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// extensionForImageType возвращает расширение файла для разрешённого типа
// фотоподтверждения. Для всего остального - ok=false: неподдерживаемое
// вложение трактуется как отсутствие фото, а не как ошибка.
func extensionForImageType(contentType string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "image/jpeg", "image/jpg":
		return ".jpg", true
	case "image/png":
		return ".png", true
	case "image/gif":
		return ".gif", true
	case "image/webp":
		return ".webp", true
	default:
		return "", false
	}
}
