package handler

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"

	"gopkg.in/yaml.v3"
)

//go:embed apidocs/openapi.yaml
var openAPISource []byte

// DocsHandler はOpenAPIドキュメントを配信するHTTPハンドラー。
// ドキュメントは起動時に一度だけ生成する。
type DocsHandler struct {
	yamlDoc []byte
	jsonDoc []byte
}

// NewDocsHandler は埋め込みのOpenAPIドキュメントを読み込み、DocsHandlerを生成する。
// serverURLが空でない場合はservers欄をserverURLで置き換える。
func NewDocsHandler(serverURL string) (*DocsHandler, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(openAPISource, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse openapi document: %w", err)
	}

	if serverURL != "" {
		doc["servers"] = []map[string]string{
			{"url": serverURL},
		}
	}

	yamlDoc, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode openapi document as yaml: %w", err)
	}
	jsonDoc, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode openapi document as json: %w", err)
	}

	return &DocsHandler{
		yamlDoc: yamlDoc,
		jsonDoc: jsonDoc,
	}, nil
}

// YAML はOpenAPIドキュメントをYAML形式で返す。
// GET /api-docs/openapi.yaml
func (h *DocsHandler) YAML(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.Write(h.yamlDoc)
}

// JSON はOpenAPIドキュメントをJSON形式で返す。
// GET /api-docs/openapi.json
func (h *DocsHandler) JSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(h.jsonDoc)
}

// Index はドキュメントの場所を案内する。
// GET /api-docs
func (h *DocsHandler) Index(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/api-docs/openapi.yaml", http.StatusFound)
}
