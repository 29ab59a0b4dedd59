package meeting

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoStore persists meetings in one DynamoDB table keyed by pk/sk:
// a meeting row is (MEETING#<id>, META) and each attendee row is
// (MEETING#<id>, ATTENDEE#<id>).
type DynamoStore struct {
	client *dynamodb.Client
	table  string
}

func NewDynamoStore(client *dynamodb.Client, table string) *DynamoStore {
	return &DynamoStore{client: client, table: table}
}

func meetingPK(meetingID string) string { return "MEETING#" + meetingID }

func (s *DynamoStore) SaveMeeting(ctx context.Context, m Meeting) error {
	item, err := attributevalue.MarshalMap(m)
	if err != nil {
		return fmt.Errorf("marshal meeting: %w", err)
	}
	item["pk"] = &types.AttributeValueMemberS{Value: meetingPK(m.MeetingID)}
	item["sk"] = &types.AttributeValueMemberS{Value: "META"}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put meeting: %w", err)
	}
	return nil
}

func (s *DynamoStore) GetMeeting(ctx context.Context, meetingID string) (Meeting, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: meetingPK(meetingID)},
			"sk": &types.AttributeValueMemberS{Value: "META"},
		},
	})
	if err != nil {
		return Meeting{}, fmt.Errorf("get meeting: %w", err)
	}
	if out.Item == nil {
		return Meeting{}, ErrMeetingNotFound
	}
	var m Meeting
	if err := attributevalue.UnmarshalMap(out.Item, &m); err != nil {
		return Meeting{}, fmt.Errorf("unmarshal meeting: %w", err)
	}
	return m, nil
}

func (s *DynamoStore) SaveAttendee(ctx context.Context, a Attendee) error {
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal attendee: %w", err)
	}
	item["pk"] = &types.AttributeValueMemberS{Value: meetingPK(a.MeetingID)}
	item["sk"] = &types.AttributeValueMemberS{Value: "ATTENDEE#" + a.AttendeeID}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put attendee: %w", err)
	}
	return nil
}
