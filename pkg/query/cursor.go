package query

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	queryErrors "github.com/theory-cloud/tablequery/pkg/errors"
)

// Cursor is the decoded form of a continuation token
type Cursor struct {
	LastEvaluatedKey map[string]any `json:"lastKey"`
	IndexName        string         `json:"index,omitempty"`
	SortDirection    string         `json:"sort,omitempty"`
}

// EncodeCursor encodes a LastEvaluatedKey into an opaque URL-safe token. An empty
// key encodes to the empty string.
func EncodeCursor(lastKey map[string]types.AttributeValue, indexName string, sortDirection string) (string, error) {
	if len(lastKey) == 0 {
		return "", nil
	}

	jsonKey := make(map[string]any, len(lastKey))
	for k, v := range lastKey {
		jsonValue, err := attributeValueToJSON(v)
		if err != nil {
			return "", fmt.Errorf("failed to convert attribute %s: %w", k, err)
		}
		jsonKey[k] = jsonValue
	}

	data, err := json.Marshal(Cursor{
		LastEvaluatedKey: jsonKey,
		IndexName:        indexName,
		SortDirection:    sortDirection,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal cursor: %w", err)
	}

	return base64.URLEncoding.EncodeToString(data), nil
}

// DecodeCursor decodes a token produced by EncodeCursor. The empty token decodes to nil.
func DecodeCursor(encoded string) (*Cursor, error) {
	if encoded == "" {
		return nil, nil
	}

	data, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", queryErrors.ErrInvalidCursor, err)
	}

	var cursor Cursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return nil, fmt.Errorf("%w: %w", queryErrors.ErrInvalidCursor, err)
	}
	if _, err := cursor.ToAttributeValues(); err != nil {
		return nil, err
	}

	return &cursor, nil
}

// ToAttributeValues converts the cursor's key back to DynamoDB attribute values
func (c *Cursor) ToAttributeValues() (map[string]types.AttributeValue, error) {
	if c == nil || len(c.LastEvaluatedKey) == 0 {
		return nil, nil
	}

	result := make(map[string]types.AttributeValue, len(c.LastEvaluatedKey))
	for k, v := range c.LastEvaluatedKey {
		av, err := jsonToAttributeValue(v)
		if err != nil {
			return nil, fmt.Errorf("%w: attribute %s: %w", queryErrors.ErrInvalidCursor, k, err)
		}
		result[k] = av
	}

	return result, nil
}

// attributeValueToJSON mirrors the DynamoDB JSON wire format, binary as base64
func attributeValueToJSON(av types.AttributeValue) (any, error) {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return map[string]any{"S": v.Value}, nil
	case *types.AttributeValueMemberN:
		return map[string]any{"N": v.Value}, nil
	case *types.AttributeValueMemberB:
		return map[string]any{"B": base64.StdEncoding.EncodeToString(v.Value)}, nil
	case *types.AttributeValueMemberBOOL:
		return map[string]any{"BOOL": v.Value}, nil
	case *types.AttributeValueMemberNULL:
		return map[string]any{"NULL": true}, nil
	case *types.AttributeValueMemberSS:
		return map[string]any{"SS": v.Value}, nil
	case *types.AttributeValueMemberNS:
		return map[string]any{"NS": v.Value}, nil
	case *types.AttributeValueMemberBS:
		encoded := make([]string, len(v.Value))
		for i, b := range v.Value {
			encoded[i] = base64.StdEncoding.EncodeToString(b)
		}
		return map[string]any{"BS": encoded}, nil
	case *types.AttributeValueMemberL:
		list := make([]any, len(v.Value))
		for i, item := range v.Value {
			jsonItem, err := attributeValueToJSON(item)
			if err != nil {
				return nil, err
			}
			list[i] = jsonItem
		}
		return map[string]any{"L": list}, nil
	case *types.AttributeValueMemberM:
		m := make(map[string]any, len(v.Value))
		for k, item := range v.Value {
			jsonItem, err := attributeValueToJSON(item)
			if err != nil {
				return nil, err
			}
			m[k] = jsonItem
		}
		return map[string]any{"M": m}, nil
	default:
		return nil, fmt.Errorf("unknown AttributeValue type: %T", av)
	}
}

func jsonToAttributeValue(v any) (types.AttributeValue, error) {
	m, ok := v.(map[string]any)
	if !ok || len(m) != 1 {
		return nil, fmt.Errorf("invalid attribute value format")
	}

	for key, val := range m {
		switch key {
		case "S":
			s, ok := val.(string)
			if !ok {
				return nil, fmt.Errorf("s value must be string")
			}
			return &types.AttributeValueMemberS{Value: s}, nil
		case "N":
			s, ok := val.(string)
			if !ok {
				return nil, fmt.Errorf("n value must be string")
			}
			return &types.AttributeValueMemberN{Value: s}, nil
		case "B":
			b, err := decodeBinary(val)
			if err != nil {
				return nil, err
			}
			return &types.AttributeValueMemberB{Value: b}, nil
		case "BOOL":
			b, ok := val.(bool)
			if !ok {
				return nil, fmt.Errorf("bool value must be bool")
			}
			return &types.AttributeValueMemberBOOL{Value: b}, nil
		case "NULL":
			return &types.AttributeValueMemberNULL{Value: true}, nil
		case "SS", "NS":
			strs, err := stringList(val)
			if err != nil {
				return nil, err
			}
			if key == "SS" {
				return &types.AttributeValueMemberSS{Value: strs}, nil
			}
			return &types.AttributeValueMemberNS{Value: strs}, nil
		case "BS":
			strs, err := stringList(val)
			if err != nil {
				return nil, err
			}
			set := make([][]byte, len(strs))
			for i, s := range strs {
				if set[i], err = decodeBinary(s); err != nil {
					return nil, err
				}
			}
			return &types.AttributeValueMemberBS{Value: set}, nil
		case "L":
			items, ok := val.([]any)
			if !ok {
				return nil, fmt.Errorf("l value must be a list")
			}
			list := make([]types.AttributeValue, len(items))
			for i, item := range items {
				av, err := jsonToAttributeValue(item)
				if err != nil {
					return nil, err
				}
				list[i] = av
			}
			return &types.AttributeValueMemberL{Value: list}, nil
		case "M":
			fields, ok := val.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("m value must be an object")
			}
			out := make(map[string]types.AttributeValue, len(fields))
			for k, item := range fields {
				av, err := jsonToAttributeValue(item)
				if err != nil {
					return nil, err
				}
				out[k] = av
			}
			return &types.AttributeValueMemberM{Value: out}, nil
		default:
			return nil, fmt.Errorf("unknown attribute value type %q", key)
		}
	}

	return nil, fmt.Errorf("invalid attribute value format")
}

func decodeBinary(val any) ([]byte, error) {
	s, ok := val.(string)
	if !ok {
		return nil, fmt.Errorf("binary value must be a base64 string")
	}
	decoded, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("failed to decode binary: %w", err)
	}
	return decoded, nil
}

func stringList(val any) ([]string, error) {
	items, ok := val.([]any)
	if !ok {
		return nil, fmt.Errorf("set value must be a list")
	}
	out := make([]string, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("set members must be strings")
		}
		out[i] = s
	}
	return out, nil
}
