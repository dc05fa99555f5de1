package openai

import (
	"encoding/json"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	goopenai "github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"
)

func convertRequest(model string, input *ai.ModelRequest) (goopenai.ChatCompletionNewParams, error) {
	messages, err := convertMessages(input.Messages)
	if err != nil {
		return goopenai.ChatCompletionNewParams{}, err
	}

	tools, err := convertTools(input.Tools)
	if err != nil {
		return goopenai.ChatCompletionNewParams{}, err
	}

	chatCompletionRequest := goopenai.ChatCompletionNewParams{
		Model:    model,
		Messages: messages,
	}

	if len(tools) > 0 {
		chatCompletionRequest.Tools = tools
	}

	jsonBytes, err := json.Marshal(input.Config)
	if err != nil {
		return goopenai.ChatCompletionNewParams{}, err
	}
	var c ai.GenerationCommonConfig
	if err := json.Unmarshal(jsonBytes, &c); err == nil {
		if c.MaxOutputTokens != 0 {
			chatCompletionRequest.MaxCompletionTokens = goopenai.Opt(int64(c.MaxOutputTokens))
		}
		if len(c.StopSequences) > 0 {
			chatCompletionRequest.Stop = goopenai.ChatCompletionNewParamsStopUnion{
				OfChatCompletionNewsStopArray: c.StopSequences,
			}
		}
		if c.Temperature != 0 {
			chatCompletionRequest.Temperature = goopenai.Opt(c.Temperature)
		}
		if c.TopP != 0 {
			chatCompletionRequest.TopP = goopenai.Opt(c.TopP)
		}
	}

	if input.Output != nil &&
		input.Output.Format != "" {
		switch input.Output.Format {
		case ai.OutputFormatJSON:
			chatCompletionRequest.ResponseFormat = goopenai.ChatCompletionNewParamsResponseFormatUnion{
				OfJSONObject: &goopenai.ResponseFormatJSONObjectParam{},
			}
		case ai.OutputFormatText:
			chatCompletionRequest.ResponseFormat = goopenai.ChatCompletionNewParamsResponseFormatUnion{
				OfText: &shared.ResponseFormatTextParam{},
			}
		default:
			return goopenai.ChatCompletionNewParams{}, fmt.Errorf("unknown output format in a request: %s", input.Output.Format)
		}
	}

	return chatCompletionRequest, nil
}

func convertMessages(messages []*ai.Message) ([]goopenai.ChatCompletionMessageParamUnion, error) {
	var msgs []goopenai.ChatCompletionMessageParamUnion

	for _, m := range messages {
		switch m.Role {
		case ai.RoleSystem:
			var parts []goopenai.ChatCompletionContentPartTextParam
			for _, content := range m.Content {
				if content.Text == "" {
					continue
				}
				parts = append(parts, goopenai.ChatCompletionContentPartTextParam{Text: content.Text})
			}
			msgs = append(msgs, goopenai.ChatCompletionMessageParamUnion{
				OfSystem: &goopenai.ChatCompletionSystemMessageParam{
					Content: goopenai.ChatCompletionSystemMessageParamContentUnion{
						OfArrayOfContentParts: parts,
					},
				},
			})
		case ai.RoleUser:
			var multiContent []goopenai.ChatCompletionContentPartUnionParam
			for _, p := range m.Content {
				part, err := convertPart(p)
				if err != nil {
					return nil, err
				}
				multiContent = append(multiContent, part)
			}
			msgs = append(msgs, goopenai.ChatCompletionMessageParamUnion{
				OfUser: &goopenai.ChatCompletionUserMessageParam{
					Content: goopenai.ChatCompletionUserMessageParamContentUnion{
						OfArrayOfContentParts: multiContent,
					},
				},
			})
		case ai.RoleModel:
			toolCalls, err := convertToolCalls(m.Content)
			if err != nil {
				return nil, err
			}
			am := goopenai.ChatCompletionAssistantMessageParam{}
			if m.Content[0].Text != "" {
				am.Content = goopenai.ChatCompletionAssistantMessageParamContentUnion{
					OfArrayOfContentParts: []goopenai.ChatCompletionAssistantMessageParamContentArrayOfContentPartUnion{
						{
							OfText: &goopenai.ChatCompletionContentPartTextParam{Text: m.Content[0].Text},
						},
					},
				}
			}
			if len(toolCalls) > 0 {
				am.ToolCalls = toolCalls
			}
			msgs = append(msgs, goopenai.ChatCompletionMessageParamUnion{OfAssistant: &am})
		case ai.RoleTool:
			for _, p := range m.Content {
				if !p.IsToolResponse() {
					continue
				}
				output, err := json.Marshal(p.ToolResponse.Output)
				if err != nil {
					return nil, err
				}
				msgs = append(msgs, goopenai.ChatCompletionMessageParamUnion{
					OfTool: &goopenai.ChatCompletionToolMessageParam{
						Content: goopenai.ChatCompletionToolMessageParamContentUnion{
							OfString: goopenai.Opt(string(output)),
						},
						ToolCallID: p.ToolResponse.Ref,
					},
				})
			}
		default:
			return nil, fmt.Errorf("unknown OpenAI role %s", m.Role)
		}
	}

	return msgs, nil
}

func convertPart(part *ai.Part) (goopenai.ChatCompletionContentPartUnionParam, error) {
	switch {
	case part.IsText():
		return goopenai.ChatCompletionContentPartUnionParam{
			OfText: &goopenai.ChatCompletionContentPartTextParam{Text: part.Text},
		}, nil
	case part.IsMedia():
		return goopenai.ChatCompletionContentPartUnionParam{
			OfImageURL: &goopenai.ChatCompletionContentPartImageParam{
				ImageURL: goopenai.ChatCompletionContentPartImageImageURLParam{
					URL:    part.Text,
					Detail: "auto",
				},
			},
		}, nil
	default:
		return goopenai.ChatCompletionContentPartUnionParam{}, fmt.Errorf("unknown part type in a request: %#v", part)
	}
}

func convertToolCalls(content []*ai.Part) ([]goopenai.ChatCompletionMessageToolCallParam, error) {
	var toolCalls []goopenai.ChatCompletionMessageToolCallParam
	for _, p := range content {
		if !p.IsToolRequest() {
			continue
		}
		toolCall, err := convertToolCall(p)
		if err != nil {
			return nil, err
		}
		toolCalls = append(toolCalls, toolCall)
	}
	return toolCalls, nil
}

func convertToolCall(part *ai.Part) (goopenai.ChatCompletionMessageToolCallParam, error) {
	param := goopenai.ChatCompletionMessageToolCallParam{
		ID: part.ToolRequest.Ref,
		Function: goopenai.ChatCompletionMessageToolCallFunctionParam{
			Name: part.ToolRequest.Name,
		},
	}

	if part.ToolRequest.Input != nil {
		args, err := json.Marshal(part.ToolRequest.Input)
		if err != nil {
			return param, err
		}
		param.Function.Arguments = string(args)
	} else {
		// OpenAI requires Arguments to be set even when empty.
		param.Function.Arguments = "{}"
	}

	return param, nil
}

func convertTool(t *ai.ToolDefinition) (goopenai.ChatCompletionToolParam, error) {
	return goopenai.ChatCompletionToolParam{
		Function: shared.FunctionDefinitionParam{
			Name:        t.Name,
			Description: goopenai.Opt(t.Description),
			Parameters:  shared.FunctionParameters(t.InputSchema),
			Strict:      goopenai.Opt(false),
		},
	}, nil
}

func convertTools(inTools []*ai.ToolDefinition) ([]goopenai.ChatCompletionToolParam, error) {
	var tools []goopenai.ChatCompletionToolParam
	for _, t := range inTools {
		tool, err := convertTool(t)
		if err != nil {
			return nil, err
		}
		tools = append(tools, tool)
	}
	return tools, nil
}
