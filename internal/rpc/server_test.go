package rpc

import (
	"context"
	"net"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/banshee-data/cloudsegment/internal/db"
	"github.com/banshee-data/cloudsegment/internal/monitoring"
	"github.com/banshee-data/cloudsegment/internal/pointset"
	"github.com/banshee-data/cloudsegment/internal/segtool"
	"github.com/banshee-data/cloudsegment/internal/storage/sqlite"
	"github.com/banshee-data/cloudsegment/internal/testutil"
	"github.com/banshee-data/cloudsegment/internal/visibility"
)

func init() {
	monitoring.SetLogger(nil)
}

type harness struct {
	tool   *segtool.Tool
	cloud  *pointset.Cloud
	client *Client
}

func setup(t *testing.T, withStore bool) *harness {
	t.Helper()

	tool, err := segtool.New(segtool.Options{})
	require.NoError(t, err)
	tool.LinkWith(testutil.NewStaticView(t))
	require.NoError(t, tool.Start())

	cloud := testutil.SampleCloud("cloud")
	added, err := tool.AddEntity(cloud)
	require.NoError(t, err)
	require.True(t, added)

	var store PolylineStore
	if withStore {
		database, err := db.NewDB(filepath.Join(t.TempDir(), "rpc.db"))
		require.NoError(t, err)
		t.Cleanup(func() { database.Close() })
		store = sqlite.NewPolylineStore(database.DB)
	}

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	RegisterSegmentationServiceServer(srv, NewServer(tool, nil, store))
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return &harness{tool: tool, cloud: cloud, client: NewClient(conn)}
}

func TestSegmentIn(t *testing.T) {
	h := setup(t, false)
	ctx := context.Background()
	testutil.DrawSquare(t, h.tool, 50)

	st, err := h.client.SegmentIn(ctx)
	require.NoError(t, err)

	stats := st.Fields["last_stats"].GetStructValue()
	require.NotNil(t, stats)
	assert.Equal(t, 2.0, stats.Fields["visible"].GetNumberValue())
	assert.Equal(t, 2.0, stats.Fields["hidden"].GetNumberValue())
	assert.True(t, st.Fields["changed"].GetBoolValue())
	assert.Equal(t, "paused", st.Fields["state"].GetStringValue())

	vis := h.cloud.VisibilityArray()
	assert.Equal(t, []bool{true, true, false, false}, flagsVisible(vis))
}

func TestSegmentOut(t *testing.T) {
	h := setup(t, false)
	testutil.DrawSquare(t, h.tool, 50)

	_, err := h.client.SegmentOut(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false, true, true}, flagsVisible(h.cloud.VisibilityArray()))
}

func TestSegment_NoContour(t *testing.T) {
	h := setup(t, false)

	_, err := h.client.SegmentIn(context.Background())
	require.Error(t, err)
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
}

func TestReset(t *testing.T) {
	h := setup(t, false)
	ctx := context.Background()
	testutil.DrawSquare(t, h.tool, 50)
	_, err := h.client.SegmentIn(ctx)
	require.NoError(t, err)

	require.NoError(t, h.client.Reset(ctx))

	assert.Equal(t, []bool{true, true, true, true}, flagsVisible(h.cloud.VisibilityArray()))
	st, err := h.client.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.0, st.Fields["contour_size"].GetNumberValue())
}

func TestPauseAndMode(t *testing.T) {
	h := setup(t, false)
	ctx := context.Background()

	require.NoError(t, h.client.Pause(ctx, true))
	assert.True(t, h.tool.Paused())
	require.NoError(t, h.client.Pause(ctx, false))
	assert.False(t, h.tool.Paused())

	require.NoError(t, h.client.SetMode(ctx, "rectangle"))
	st, err := h.client.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "rectangle", st.Fields["mode"].GetStringValue())

	err = h.client.SetMode(ctx, "ellipse")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestStoppedToolRejectsResume(t *testing.T) {
	h := setup(t, false)
	ctx := context.Background()
	h.tool.Stop(true)

	err := h.client.Pause(ctx, false)
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
	err = h.client.SetMode(ctx, "rectangle")
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	testutil.DrawSquare(t, h.tool, 50)
	_, err = h.client.SegmentIn(ctx)
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
	assert.Equal(t, []bool{true, true, true, true}, flagsVisible(h.cloud.VisibilityArray()))
}

func TestExportImport(t *testing.T) {
	h := setup(t, true)
	ctx := context.Background()
	testutil.DrawSquare(t, h.tool, 50)

	exported, err := h.client.ExportPolyline(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, "Segmentation polyline #1", exported.Fields["name"].GetStringValue())
	assert.True(t, exported.Fields["mode_2d"].GetBoolValue())
	id := exported.Fields["polyline_id"].GetStringValue()
	require.NotEmpty(t, id)
	assert.Len(t, exported.Fields["vertices"].GetListValue().GetValues(), 4)

	require.NoError(t, h.client.Reset(ctx))

	st, err := h.client.ImportPolyline(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 4.0, st.Fields["contour_size"].GetNumberValue())
	assert.True(t, st.Fields["contour_closed"].GetBoolValue())

	_, err = h.client.SegmentIn(ctx)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true, false, false}, flagsVisible(h.cloud.VisibilityArray()))
}

func TestExport_NoContour(t *testing.T) {
	h := setup(t, true)

	_, err := h.client.ExportPolyline(context.Background(), true)
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
}

func TestImport_Errors(t *testing.T) {
	h := setup(t, true)
	_, err := h.client.ImportPolyline(context.Background(), "missing")
	assert.Equal(t, codes.NotFound, status.Code(err))

	noStore := setup(t, false)
	_, err = noStore.client.ImportPolyline(context.Background(), "missing")
	assert.Equal(t, codes.Unimplemented, status.Code(err))
}

func flagsVisible(flags []visibility.Flag) []bool {
	out := make([]bool, len(flags))
	for i, f := range flags {
		out[i] = f == visibility.Visible
	}
	return out
}
