package report

import (
	"context"
	"fmt"

	"query-log-analyzer/pkg/aggregate"

	"github.com/jomei/notionapi"
)

// ExportToNotion creates a Notion page summarizing the slowest template
// groups of a run and returns the page URL.
func ExportToNotion(apiKey, databaseID, sourceFile string, analysis aggregate.Analysis, top int) (string, error) {
	summaries := analysis.Summaries(aggregate.ModeParameterized, aggregate.GroupingTemplate)
	if top > 0 && len(summaries) > top {
		summaries = summaries[:top]
	}

	var blocks []notionapi.Block
	blocks = append(blocks, newHeading2Block("Run Information"))
	blocks = append(blocks, newBulletedListItemBlock(fmt.Sprintf("Source: %s", sourceFile)))
	blocks = append(blocks, newBulletedListItemBlock(fmt.Sprintf("Records: %d", analysis.RecordCount)))
	blocks = append(blocks, newBulletedListItemBlock(fmt.Sprintf("Template groups: %d", len(analysis.Parameterized.ByTemplate))))

	blocks = append(blocks, newHeading2Block("Slowest Query Templates"))
	for i, sum := range summaries {
		blocks = append(blocks, newHeading3Block(fmt.Sprintf("#%d — %.3fs total, %d executions", i+1, sum.TotalElapsedSeconds, sum.Count)))
		blocks = append(blocks, newCodeBlock(truncateText(sum.Statement, 1999), "sql"))
		blocks = append(blocks, newBulletedListItemBlock(fmt.Sprintf(
			"Avg elapsed: %.3fs | Avg CPU: %.1fµs | Avg service: %.3fs",
			sum.AvgElapsedSeconds, sum.AvgCPUMicroseconds, sum.AvgServiceSeconds)))
		blocks = append(blocks, newBulletedListItemBlock(fmt.Sprintf(
			"Avg results: %.1f rows, %.0f bytes", sum.AvgResultCount, sum.AvgResultSizeBytes)))
		if sum.Example != "" && sum.Example != sum.Statement {
			blocks = append(blocks, newCodeBlock(truncateText(sum.Example, 1999), "sql"))
		}
		blocks = append(blocks, newDividerBlock())
	}

	client := notionapi.NewClient(notionapi.Token(apiKey))
	title := fmt.Sprintf("Query Report: %s", sourceFile)

	req := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(databaseID),
		},
		Properties: notionapi.Properties{
			"Name": notionapi.TitleProperty{
				Type:  notionapi.PropertyTypeTitle,
				Title: []notionapi.RichText{newTextRichText(truncateText(title, 100))},
			},
		},
		Children: blocks,
	}

	page, err := client.Page.Create(context.Background(), req)
	if err != nil {
		return "", fmt.Errorf("failed to create Notion page: %w", err)
	}
	return page.URL, nil
}

func newTextRichText(content string) notionapi.RichText {
	return notionapi.RichText{
		Type:      notionapi.ObjectTypeText,
		PlainText: content,
		Text: &notionapi.Text{
			Content: content,
		},
	}
}

func newHeading2Block(text string) notionapi.Block {
	return &notionapi.Heading2Block{
		BasicBlock: notionapi.BasicBlock{
			Object: notionapi.ObjectTypeBlock,
			Type:   notionapi.BlockTypeHeading2,
		},
		Heading2: notionapi.Heading{
			RichText: []notionapi.RichText{newTextRichText(text)},
		},
	}
}

func newHeading3Block(text string) notionapi.Block {
	return &notionapi.Heading3Block{
		BasicBlock: notionapi.BasicBlock{
			Object: notionapi.ObjectTypeBlock,
			Type:   notionapi.BlockTypeHeading3,
		},
		Heading3: notionapi.Heading{
			RichText: []notionapi.RichText{newTextRichText(text)},
		},
	}
}

func newBulletedListItemBlock(text string) notionapi.Block {
	return &notionapi.BulletedListItemBlock{
		BasicBlock: notionapi.BasicBlock{
			Object: notionapi.ObjectTypeBlock,
			Type:   notionapi.BlockTypeBulletedListItem,
		},
		BulletedListItem: notionapi.ListItem{
			RichText: []notionapi.RichText{newTextRichText(text)},
		},
	}
}

func newCodeBlock(content, language string) notionapi.Block {
	return &notionapi.CodeBlock{
		BasicBlock: notionapi.BasicBlock{
			Object: notionapi.ObjectTypeBlock,
			Type:   notionapi.BlockTypeCode,
		},
		Code: notionapi.Code{
			RichText: []notionapi.RichText{newTextRichText(content)},
			Language: language,
		},
	}
}

func newDividerBlock() notionapi.Block {
	return &notionapi.DividerBlock{
		BasicBlock: notionapi.BasicBlock{
			Object: notionapi.ObjectTypeBlock,
			Type:   notionapi.BlockTypeDivider,
		},
		Divider: notionapi.Divider{},
	}
}

func truncateText(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen-3] + "..."
}
