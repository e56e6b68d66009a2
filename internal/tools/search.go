package tools

import (
	"context"
	"encoding/json"

	"github.com/fenwick-labs/voicegate/internal/agentctrl"
	"github.com/fenwick-labs/voicegate/internal/config"
	"github.com/fenwick-labs/voicegate/internal/ragsvc"
	"github.com/fenwick-labs/voicegate/internal/session"
)

// SearchKnowledgeBase implements spec.md §4.3's search_knowledge_base
// tool: queries the retrieval service and returns its formatted text.
type SearchKnowledgeBase struct {
	rag *ragsvc.Service
}

// NewSearchKnowledgeBase constructs the handler.
func NewSearchKnowledgeBase(rag *ragsvc.Service) *SearchKnowledgeBase {
	return &SearchKnowledgeBase{rag: rag}
}

func (s *SearchKnowledgeBase) Name() string      { return "search_knowledge_base" }
func (s *SearchKnowledgeBase) RequiresAuth() bool { return false }
func (s *SearchKnowledgeBase) Description() string {
	return "Search the knowledge base for answers to customer questions."
}

type searchArgs struct {
	Query string `json:"query" validate:"required"`
}

func (s *SearchKnowledgeBase) Execute(ctx context.Context, sess *session.Session, arguments json.RawMessage) (*Result, *agentctrl.HandoffSignal, error) {
	var args searchArgs
	if errRes := decodeArgs(arguments, &args); errRes != nil {
		return errRes, nil, nil
	}

	text, err := s.rag.Query(ctx, args.Query, 0)
	if err != nil {
		return errResult(config.ErrEmbeddingFailure, "error: knowledge base search failed, please try again"), nil, nil
	}
	if text == "" {
		return okResult("No relevant information was found in the knowledge base."), nil, nil
	}
	return okResult(text), nil, nil
}
