package query

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	queryErrors "github.com/theory-cloud/tablequery/pkg/errors"
)

func TestEncodeCursor(t *testing.T) {
	t.Run("empty key encodes to empty token", func(t *testing.T) {
		encoded, err := EncodeCursor(map[string]types.AttributeValue{}, "gsi1", "")
		require.NoError(t, err)
		assert.Empty(t, encoded)
	})

	t.Run("token is url-safe json", func(t *testing.T) {
		encoded, err := EncodeCursor(map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: "USER#123"},
		}, "gsi1", SortDescending)
		require.NoError(t, err)

		data, err := base64.URLEncoding.DecodeString(encoded)
		require.NoError(t, err)

		var raw map[string]any
		require.NoError(t, json.Unmarshal(data, &raw))
		assert.Equal(t, "gsi1", raw["index"])
		assert.Equal(t, "desc", raw["sort"])
		assert.Equal(t, map[string]any{"pk": map[string]any{"S": "USER#123"}}, raw["lastKey"])
	})
}

func TestCursorKeyTypes(t *testing.T) {
	lastKey := map[string]types.AttributeValue{
		"s":    &types.AttributeValueMemberS{Value: "test"},
		"n":    &types.AttributeValueMemberN{Value: "123.45"},
		"b":    &types.AttributeValueMemberB{Value: []byte("binary data")},
		"bool": &types.AttributeValueMemberBOOL{Value: true},
		"null": &types.AttributeValueMemberNULL{Value: true},
		"ss":   &types.AttributeValueMemberSS{Value: []string{"a", "b"}},
		"ns":   &types.AttributeValueMemberNS{Value: []string{"1", "2"}},
		"bs":   &types.AttributeValueMemberBS{Value: [][]byte{[]byte("x"), []byte("y")}},
		"l": &types.AttributeValueMemberL{Value: []types.AttributeValue{
			&types.AttributeValueMemberS{Value: "item"},
		}},
		"m": &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
			"nested": &types.AttributeValueMemberN{Value: "7"},
		}},
	}

	encoded, err := EncodeCursor(lastKey, "", "")
	require.NoError(t, err)

	cursor, err := DecodeCursor(encoded)
	require.NoError(t, err)
	decoded, err := cursor.ToAttributeValues()
	require.NoError(t, err)
	assert.Equal(t, lastKey, decoded)
}

func TestDecodeCursor(t *testing.T) {
	t.Run("empty token", func(t *testing.T) {
		cursor, err := DecodeCursor("")
		require.NoError(t, err)
		assert.Nil(t, cursor)
	})

	invalid := map[string]string{
		"not base64":        "not-base64!!!",
		"not json":          base64.URLEncoding.EncodeToString([]byte("{broken")),
		"unknown type":      base64.URLEncoding.EncodeToString([]byte(`{"lastKey":{"pk":{"X":"1"}}}`)),
		"wrong value shape": base64.URLEncoding.EncodeToString([]byte(`{"lastKey":{"pk":{"S":1}}}`)),
		"two types":         base64.URLEncoding.EncodeToString([]byte(`{"lastKey":{"pk":{"S":"a","N":"1"}}}`)),
	}
	for name, token := range invalid {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeCursor(token)
			assert.ErrorIs(t, err, queryErrors.ErrInvalidCursor)
		})
	}
}

func TestIsTruncated(t *testing.T) {
	key := map[string]types.AttributeValue{"pk": &types.AttributeValueMemberS{Value: "p"}}

	assert.False(t, isTruncated(0, 3, nil), "no key, no limit")
	assert.True(t, isTruncated(0, 3, key), "key, no limit")
	assert.True(t, isTruncated(10, 3, key), "short of limit")
	assert.False(t, isTruncated(3, 3, key), "limit reached")
	assert.False(t, isTruncated(3, 5, key), "limit exceeded")
	assert.False(t, isTruncated(10, 3, nil), "exhausted before limit")
}
