package remotesvc

import (
	"context"
	"net/http"
	"net/url"

	"github.com/trezcool/masomo-console/core/student"
	gatewaysvc "github.com/trezcool/masomo-console/services/gateway"
)

const pathStudents = "/students/"

type StudentClient struct {
	gw *gatewaysvc.Gateway
}

var _ student.Client = (*StudentClient)(nil)

func NewStudentClient(gw *gatewaysvc.Gateway) *StudentClient {
	return &StudentClient{gw: gw}
}

func (c *StudentClient) List(ctx context.Context) ([]student.Record, error) {
	records := make([]student.Record, 0)
	if err := c.gw.Get(ctx, pathStudents, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *StudentClient) Create(ctx context.Context, p student.Payload) (student.Record, error) {
	var rec student.Record
	err := c.gw.Post(ctx, pathStudents, p, &rec)
	return rec, err
}

func (c *StudentClient) Update(ctx context.Context, id student.ID, p student.Payload) (student.Record, error) {
	var rec student.Record
	err := c.gw.JSON(ctx, http.MethodPut, studentPath(id), p, &rec)
	return rec, err
}

func (c *StudentClient) Delete(ctx context.Context, id student.ID) error {
	return c.gw.Delete(ctx, studentPath(id))
}

func studentPath(id student.ID) string {
	return pathStudents + url.PathEscape(id.String())
}
