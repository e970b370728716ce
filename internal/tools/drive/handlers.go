package drive

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/evert/google-mcp-go/internal/pkg/response"
	"github.com/evert/google-mcp-go/internal/services"
)

const noFilesMessage = "No files authorized. The user can create new spreadsheets, or re-authenticate to select existing files to share."

type ListAuthorizedFilesInput struct {
	MimeType string `json:"mimeType,omitempty" jsonschema:"Filter by MIME type, e.g. application/vnd.google-apps.spreadsheet"`
}

type ListAuthorizedFilesOutput struct {
	Files   []FileSummary `json:"files"`
	Message string        `json:"message,omitempty"`
}

func createListAuthorizedFilesHandler(sess *services.Session) mcp.ToolHandlerFor[ListAuthorizedFilesInput, ListAuthorizedFilesOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListAuthorizedFilesInput) (*mcp.CallToolResult, ListAuthorizedFilesOutput, error) {
		files, err := sess.AuthorizedFiles(ctx, input.MimeType)
		if err != nil {
			return nil, ListAuthorizedFilesOutput{}, err
		}

		out := ListAuthorizedFilesOutput{Files: make([]FileSummary, 0, len(files))}
		if len(files) == 0 {
			out.Message = noFilesMessage
			return response.New().Line("%s", noFilesMessage).TextResult(), out, nil
		}

		rb := response.New()
		rb.Header("Authorized Files")
		rb.KeyValue("Count", len(files))
		rb.Blank()
		for _, f := range files {
			s := fileToSummary(f)
			out.Files = append(out.Files, s)
			rb.Item("%s (%s) [%s]", s.FileName, formatFileType(s.MimeType), s.FileID)
		}

		return rb.TextResult(), out, nil
	}
}
