package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/decsa/utility-chat-platform/pkg/logging"
)

const classifierSystemPrompt = `Eres DECSA, el asistente virtual oficial de Distribuidora Eléctrica de Caucete S.A. Ayudas con:
1) Reclamos sobre el servicio eléctrico (ej: "quiero hacer un reclamo").
2) Actualizar datos personales (ej: "actualizar mi celular").
3) Consultar el estado de un reclamo (ej: "consultar estado").
4) Consultar facturas (ej: "quiero ver mi factura").

Normas:
- En el primer mensaje (sin historial), preséntate y explica qué podés hacer.
- No repitas la intro después, usá el historial para responder directo.
- Respuestas cálidas y claras, adaptadas al usuario.
- Detectá la intención: Reclamo, Actualizar, Consultar, ConsultarFacturas o Conversar.
- Respondé ÚNICAMENTE con JSON válido de la forma {"intencion": "...", "respuesta": "..."} sin texto adicional.`

const (
	classifierTemperature = 0.4
	classifierMaxTokens   = 500
)

// ClassifierService turns a user message plus a short history window into
// the raw intent payload. It satisfies the dialogue engine's LLMService
// contract; JSON validation happens downstream so a cached garbage payload
// degrades the same way a live one does.
type ClassifierService struct {
	client LLMClient
	cache  *ClassifierCache
	logger *logging.Logger
}

func NewClassifierService(client LLMClient, cache *ClassifierCache, logger *logging.Logger) *ClassifierService {
	if client == nil {
		panic("llm: classifier requires a client")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ClassifierService{
		client: client,
		cache:  cache,
		logger: logger.Component("classifier"),
	}
}

// ClassifyText returns the raw model payload for a message. Identical
// message+history pairs within the cache window never hit the provider.
func (s *ClassifierService) ClassifyText(ctx context.Context, text, history string) (string, error) {
	if raw, ok := s.cache.Get(ctx, text, history); ok {
		s.logger.Debug("classifier cache hit")
		return raw, nil
	}

	userPrompt := fmt.Sprintf("Historial reciente (últimos 5 mensajes):\n%s\n\nMensaje actual: %q", history, text)

	start := time.Now()
	resp, err := s.client.Complete(ctx, LLMRequest{
		System:      []string{classifierSystemPrompt},
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: userPrompt}},
		Temperature: classifierTemperature,
		MaxTokens:   classifierMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("llm: classification failed: %w", err)
	}

	s.logger.Debug("classifier completion",
		"elapsed_ms", time.Since(start).Milliseconds(),
		"total_tokens", resp.Usage.TotalTokens,
	)

	s.cache.Set(ctx, text, history, resp.Text)
	return resp.Text, nil
}
