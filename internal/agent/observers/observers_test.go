package observers

import (
	"bytes"
	"context"
	"testing"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoice-ai-manager/server/internal/core"
	logx "github.com/invoice-ai-manager/server/pkg/logger"
)

func TestAttachLogsPromptRender(t *testing.T) {
	var buf bytes.Buffer
	logx.Init(logx.LoggerOpts{Environment: core.Testing, Writer: &buf})
	t.Cleanup(func() { logx.Init() })

	ctx := Attach(context.Background())
	tpl := prompt.FromMessages(schema.GoTemplate, schema.UserMessage("Hello {{.Name}}"))
	msgs, err := tpl.Format(ctx, map[string]any{"Name": "Acme"})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Hello Acme", msgs[0].Content)

	assert.Contains(t, buf.String(), "prompt render start")
	assert.Contains(t, buf.String(), "prompt render end")
}
