package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

// ConverseAPI is the subset of the Bedrock runtime client used by BedrockModel.
type ConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockModel completes prompts with the Bedrock Converse API. Implements Model.
type BedrockModel struct {
	api     ConverseAPI
	modelID string
}

// NewBedrockModel creates a model client from an SDK config.
func NewBedrockModel(cfg aws.Config, modelID string) *BedrockModel {
	return &BedrockModel{api: bedrockruntime.NewFromConfig(cfg), modelID: modelID}
}

// NewBedrockModelWithAPI wraps an existing runtime client.
func NewBedrockModelWithAPI(api ConverseAPI, modelID string) *BedrockModel {
	return &BedrockModel{api: api, modelID: modelID}
}

// ModelID returns the configured model identifier.
func (b *BedrockModel) ModelID() string { return b.modelID }

// Complete sends prompt as a single user message and returns the text of the reply.
func (b *BedrockModel) Complete(ctx context.Context, prompt string) (string, error) {
	out, err := b.api.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(b.modelID),
		Messages: []types.Message{{
			Role:    types.ConversationRoleUser,
			Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: prompt}},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("bedrock converse: %w", err)
	}

	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return "", fmt.Errorf("bedrock converse: unexpected output type %T", out.Output)
	}
	var sb strings.Builder
	for _, block := range msg.Value.Content {
		if t, ok := block.(*types.ContentBlockMemberText); ok {
			sb.WriteString(t.Value)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("bedrock converse: no text in response (stop reason %s)", out.StopReason)
	}
	return sb.String(), nil
}
