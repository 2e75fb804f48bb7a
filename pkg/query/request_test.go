package query_test

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"

	"github.com/theory-cloud/tablequery/pkg/query"
)

func TestRequestRendering(t *testing.T) {
	t.Run("empty fields stay nil", func(t *testing.T) {
		req := &query.Request{TableName: "orders", KeyConditionExpression: "#pk = :v_sub0"}

		in := req.QueryInput()
		assert.Equal(t, "orders", aws.ToString(in.TableName))
		assert.Equal(t, "#pk = :v_sub0", aws.ToString(in.KeyConditionExpression))
		assert.Nil(t, in.IndexName)
		assert.Nil(t, in.FilterExpression)
		assert.Nil(t, in.ProjectionExpression)
		assert.Nil(t, in.ExpressionAttributeNames)
		assert.Nil(t, in.ExpressionAttributeValues)
		assert.Nil(t, in.Limit)
		assert.Nil(t, in.ScanIndexForward)
	})

	t.Run("scan drops query-only fields", func(t *testing.T) {
		req := &query.Request{
			TableName:              "orders",
			IndexName:              "gsi1",
			KeyConditionExpression: "#pk = :v_sub0",
			FilterExpression:       "#status = :v_sub1",
			ScanIndexForward:       aws.Bool(false),
			Limit:                  aws.Int32(50),
			Segment:                aws.Int32(0),
			TotalSegments:          aws.Int32(2),
		}

		in := req.ScanInput()
		assert.Equal(t, "gsi1", aws.ToString(in.IndexName))
		assert.Equal(t, "#status = :v_sub1", aws.ToString(in.FilterExpression))
		assert.Equal(t, aws.Int32(50), in.Limit)
		assert.Equal(t, aws.Int32(0), in.Segment)
		assert.Equal(t, aws.Int32(2), in.TotalSegments)
	})

	t.Run("rendered input does not alias the request", func(t *testing.T) {
		req := &query.Request{
			TableName:                "orders",
			ExpressionAttributeNames: map[string]string{"#pk": "pk"},
			ExclusiveStartKey:        map[string]types.AttributeValue{"pk": &types.AttributeValueMemberS{Value: "p"}},
		}

		in := req.QueryInput()
		in.ExpressionAttributeNames["#x"] = "x"
		in.ExclusiveStartKey = nil

		assert.Equal(t, map[string]string{"#pk": "pk"}, req.ExpressionAttributeNames)
		assert.Len(t, req.ExclusiveStartKey, 1)
	})
}
