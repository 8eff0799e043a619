package upload

import (
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/dharti-patel/hipster-image-upload/internal/domain"
)

// Раскладка ключей в blob-хранилище:
//   temp/chunks/<session>/<index>      — чанки до сборки
//   tmp/assembled_<session>            — собранный файл на время finalize
//   images/original/<session>_<file>   — проверенный оригинал
//   images/variants/<session>_<name>   — производные варианты

func chunkPrefix(id domain.SessionID) string {
	return "temp/chunks/" + id.String() + "/"
}

func chunkKey(id domain.SessionID, index int) string {
	return chunkPrefix(id) + strconv.Itoa(index)
}

func assembledKey(id domain.SessionID) string {
	return "tmp/assembled_" + id.String()
}

func originalKey(id domain.SessionID, filename string) string {
	return "images/original/" + id.String() + "_" + sanitize(filename)
}

func variantKey(id domain.SessionID, name, filename string) string {
	return "images/variants/" + id.String() + "_" + sanitize(name) + path.Ext(sanitize(filename))
}

func sanitize(name string) string {
	u := url.PathEscape(name)
	return strings.ReplaceAll(u, "%2F", "_")
}
