package service

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/quizhub-api/internal/dto"
)

//go:embed schema/question_import.schema.json
var questionImportSchemaSource string

var (
	questionImportSchemaOnce sync.Once
	questionImportSchema     *jsonschema.Schema
	questionImportSchemaErr  error
)

func compiledImportSchema() (*jsonschema.Schema, error) {
	questionImportSchemaOnce.Do(func() {
		questionImportSchema, questionImportSchemaErr = jsonschema.CompileString("question_import.schema.json", questionImportSchemaSource)
	})
	return questionImportSchema, questionImportSchemaErr
}

// Import loads a JSON or YAML question document and inserts it as one batch.
func (s *questionService) Import(ctx context.Context, actor Actor, filename string, content []byte) (dto.QuestionBatchResult, error) {
	document, err := DecodeQuestionDocument(filename, content)
	if err != nil {
		return dto.QuestionBatchResult{}, err
	}

	s.logger.Info().Str("filename", filename).Int("entries", len(document.Questions)).Msg("importing question document")
	return s.CreateBatch(ctx, actor, document)
}

// DecodeQuestionDocument sniffs the content type, normalises YAML to JSON and checks
// the document against the import schema before decoding it into a batch request.
func DecodeQuestionDocument(filename string, content []byte) (dto.QuestionBatchRequest, error) {
	content = bytes.TrimSpace(content)
	if len(content) == 0 {
		return dto.QuestionBatchRequest{}, validationErrorf("import document is empty")
	}

	raw, err := toJSON(filename, content)
	if err != nil {
		return dto.QuestionBatchRequest{}, err
	}

	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return dto.QuestionBatchRequest{}, validationErrorf("import document is not valid JSON: %v", err)
	}

	schema, err := compiledImportSchema()
	if err != nil {
		return dto.QuestionBatchRequest{}, err
	}
	if err := schema.Validate(generic); err != nil {
		return dto.QuestionBatchRequest{}, describeSchemaError(err)
	}

	var document dto.QuestionBatchRequest
	if err := json.Unmarshal(raw, &document); err != nil {
		return dto.QuestionBatchRequest{}, validationErrorf("import document could not be decoded: %v", err)
	}
	return document, nil
}

func toJSON(filename string, content []byte) ([]byte, error) {
	detected := mimetype.Detect(content)
	if detected.Is("application/json") {
		return content, nil
	}
	if !isText(detected) {
		return nil, ErrUnsupportedImport
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == ".json" {
		return content, nil
	}

	var generic interface{}
	if err := yaml.Unmarshal(content, &generic); err != nil {
		return nil, validationErrorf("import document is not valid YAML: %v", err)
	}
	if _, ok := generic.(map[string]interface{}); !ok {
		return nil, validationErrorf("import document must be a mapping with a questions list")
	}

	converted, err := json.Marshal(generic)
	if err != nil {
		return nil, validationErrorf("import document could not be converted: %v", err)
	}
	return converted, nil
}

func isText(detected *mimetype.MIME) bool {
	for current := detected; current != nil; current = current.Parent() {
		if current.Is("text/plain") {
			return true
		}
	}
	return false
}

func describeSchemaError(err error) error {
	var validationErr *jsonschema.ValidationError
	if !errors.As(err, &validationErr) {
		return validationErrorf("import document is invalid")
	}
	leaf := validationErr
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}
	location := leaf.InstanceLocation
	if location == "" {
		location = "/"
	}
	return validationErrorf("import document is invalid at %s: %s", location, leaf.Message)
}
