package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/decsa/utility-chat-platform/internal/llm"
)

// Smoke-tests the configured intent classifier providers against the real
// APIs. Needs OPENAI_API_KEY and/or GEMINI_API_KEY in the environment.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	history := "Usuario: hola | DECSA: ¡Hola! ¿En qué puedo ayudarte?"
	text := "kiero aser un reklamo, no tengo luz"

	fmt.Println("Intent Classifier Provider Test")
	fmt.Println("===============================")

	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		fmt.Println("\n[1] OpenAI...")
		runProvider(ctx, func() (llm.LLMClient, error) {
			return llm.NewOpenAILLMClient(key, os.Getenv("OPENAI_MODEL"))
		}, text, history)
	} else {
		fmt.Println("\n[1] Skipping OpenAI (OPENAI_API_KEY not set)")
	}

	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		fmt.Println("\n[2] Gemini...")
		runProvider(ctx, func() (llm.LLMClient, error) {
			return llm.NewGeminiLLMClient(ctx, key, os.Getenv("GEMINI_MODEL"))
		}, text, history)
	} else {
		fmt.Println("\n[2] Skipping Gemini (GEMINI_API_KEY not set)")
	}
}

func runProvider(ctx context.Context, build func() (llm.LLMClient, error), text, history string) {
	client, err := build()
	if err != nil {
		fmt.Printf("    ❌ Failed to create client: %v\n", err)
		return
	}

	svc := llm.NewClassifierService(client, nil, nil)

	start := time.Now()
	raw, err := svc.ClassifyText(ctx, text, history)
	elapsed := time.Since(start)
	if err != nil {
		fmt.Printf("    ❌ Error: %v\n", err)
		return
	}
	fmt.Printf("    ✅ Response (%v):\n", elapsed.Round(time.Millisecond))
	fmt.Printf("    %s\n", raw)
}
