// Package inventory lists the VPC flow log subscriptions of an account so
// operators can find the S3 objects to feed into flowtag.
package inventory

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/itsjashshah/flowtag/internal/flowlog"
)

type Subscription struct {
	ID          string
	ResourceID  string
	TrafficType string
	Destination string
	DestType    string
	Status      string
	Format      string
	Supported   bool
}

func ListFlowLogs(ctx context.Context, client ec2.DescribeFlowLogsAPIClient) ([]Subscription, error) {
	var subs []Subscription

	paginator := ec2.NewDescribeFlowLogsPaginator(client, &ec2.DescribeFlowLogsInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe flow logs: %w", err)
		}
		for _, fl := range page.FlowLogs {
			subs = append(subs, toSubscription(fl))
		}
	}

	sort.Slice(subs, func(i, j int) bool {
		return subs[i].ID < subs[j].ID
	})
	return subs, nil
}

func toSubscription(fl types.FlowLog) Subscription {
	dest := aws.ToString(fl.LogDestination)
	if dest == "" {
		dest = aws.ToString(fl.LogGroupName)
	}
	format := aws.ToString(fl.LogFormat)

	return Subscription{
		ID:          aws.ToString(fl.FlowLogId),
		ResourceID:  aws.ToString(fl.ResourceId),
		TrafficType: string(fl.TrafficType),
		Destination: dest,
		DestType:    string(fl.LogDestinationType),
		Status:      aws.ToString(fl.FlowLogStatus),
		Format:      format,
		Supported:   flowlog.IsDefaultFormat(format),
	}
}
