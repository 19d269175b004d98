package records

import (
	"context"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-portfolio/pkg/formgate"
)

// OpenAPI describes the JSON API mounted at base. The document is validated
// before it is returned.
func OpenAPI(title, base string) (*openapi3.T, error) {
	if title == "" {
		title = "Portfolio"
	}
	schemas := openapi3.Schemas{
		"Record":        openapi3.NewSchemaRef("", recordSchema()),
		"NewRecord":     openapi3.NewSchemaRef("", newRecordSchema()),
		"RecordList":    openapi3.NewSchemaRef("", recordListSchema()),
		"Validation":    openapi3.NewSchemaRef("", validationSchema()),
		"Notification":  openapi3.NewSchemaRef("", notificationSchema()),
		"CarouselState": openapi3.NewSchemaRef("", carouselSchema()),
		"Error":         openapi3.NewSchemaRef("", errorSchema()),
	}
	ref := func(name string) *openapi3.SchemaRef {
		return openapi3.NewSchemaRef("#/components/schemas/"+name, schemas[name].Value)
	}

	listRecords := operation("listRecords", "List contact records",
		response(http.StatusOK, "Records in insertion order", ref("RecordList")))

	createRecord := operation("createRecord", "Validate and add a contact record",
		response(http.StatusCreated, "Created record", ref("Record")),
		response(http.StatusBadRequest, "Malformed body", ref("Error")),
		response(http.StatusUnprocessableEntity, "Per-field validation errors", ref("Validation")))
	createRecord.RequestBody = &openapi3.RequestBodyRef{
		Value: openapi3.NewRequestBody().WithRequired(true).WithJSONSchemaRef(ref("NewRecord")),
	}

	deleteRecord := operation("deleteRecord", "Delete a record; unknown ids are ignored",
		response(http.StatusNoContent, "Deleted or absent", nil),
		response(http.StatusBadRequest, "Invalid id", ref("Error")))
	deleteRecord.Parameters = openapi3.Parameters{
		{Value: openapi3.NewPathParameter("id").WithSchema(openapi3.NewIntegerSchema())},
	}

	notifications := operation("listNotifications", "Live notification banners",
		response(http.StatusOK, "Active banners, oldest first",
			openapi3.NewSchemaRef("", openapi3.NewObjectSchema().
				WithProperty("data", openapi3.NewArraySchema().WithItems(ref("Notification").Value)))))

	carouselState := operation("getCarousel", "Current carousel state",
		response(http.StatusOK, "Carousel state", ref("CarouselState")))

	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       title,
			Version:     "1.0.0",
			Description: "Contact table, form validation and carousel state.",
		},
		Servers: openapi3.Servers{{URL: base}},
		Paths: openapi3.NewPaths(
			openapi3.WithPath("/api/records", &openapi3.PathItem{Get: listRecords, Post: createRecord}),
			openapi3.WithPath("/api/records/{id}", &openapi3.PathItem{Delete: deleteRecord}),
			openapi3.WithPath("/api/notifications", &openapi3.PathItem{Get: notifications}),
			openapi3.WithPath("/api/carousel", &openapi3.PathItem{Get: carouselState}),
		),
		Components: &openapi3.Components{Schemas: schemas},
	}

	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("records: openapi document: %w", err)
	}
	return doc, nil
}

type responseSpec struct {
	status int
	desc   string
	schema *openapi3.SchemaRef
}

func response(status int, desc string, schema *openapi3.SchemaRef) responseSpec {
	return responseSpec{status: status, desc: desc, schema: schema}
}

func operation(id, summary string, responses ...responseSpec) *openapi3.Operation {
	op := openapi3.NewOperation()
	op.OperationID = id
	op.Summary = summary

	opts := make([]openapi3.NewResponsesOption, 0, len(responses))
	for _, rs := range responses {
		res := openapi3.NewResponse().WithDescription(rs.desc)
		if rs.schema != nil {
			res = res.WithJSONSchemaRef(rs.schema)
		}
		opts = append(opts, openapi3.WithStatus(rs.status, &openapi3.ResponseRef{Value: res}))
	}
	op.Responses = openapi3.NewResponses(opts...)
	return op
}

func recordSchema() *openapi3.Schema {
	return openapi3.NewObjectSchema().
		WithProperty("id", openapi3.NewIntegerSchema().WithMin(1)).
		WithProperty("name", openapi3.NewStringSchema()).
		WithProperty("email", openapi3.NewStringSchema()).
		WithProperty("phone", openapi3.NewStringSchema()).
		WithRequired([]string{"id", "name", "email", "phone"})
}

func newRecordSchema() *openapi3.Schema {
	return openapi3.NewObjectSchema().
		WithProperty(formgate.FieldName, openapi3.NewStringSchema().WithMinLength(1)).
		WithProperty(formgate.FieldEmail, openapi3.NewStringSchema().WithPattern(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)).
		WithProperty(formgate.FieldPhone, openapi3.NewStringSchema()).
		WithRequired([]string{formgate.FieldName, formgate.FieldEmail, formgate.FieldPhone})
}

func recordListSchema() *openapi3.Schema {
	return openapi3.NewObjectSchema().
		WithProperty("data", openapi3.NewArraySchema().WithItems(recordSchema())).
		WithProperty("count", openapi3.NewIntegerSchema().WithMin(0))
}

func validationSchema() *openapi3.Schema {
	return openapi3.NewObjectSchema().
		WithProperty("errors", openapi3.NewObjectSchema().WithAdditionalProperties(openapi3.NewStringSchema()))
}

func notificationSchema() *openapi3.Schema {
	return openapi3.NewObjectSchema().
		WithProperty("id", openapi3.NewStringSchema()).
		WithProperty("message", openapi3.NewStringSchema()).
		WithProperty("kind", openapi3.NewStringSchema().WithEnum("info", "success")).
		WithProperty("stage", openapi3.NewStringSchema().WithEnum("visible", "fading")).
		WithProperty("created_at", openapi3.NewDateTimeSchema())
}

func carouselSchema() *openapi3.Schema {
	slide := openapi3.NewObjectSchema().
		WithProperty("title", openapi3.NewStringSchema()).
		WithProperty("caption", openapi3.NewStringSchema())
	return openapi3.NewObjectSchema().
		WithProperty("current", openapi3.NewIntegerSchema().WithMin(0)).
		WithProperty("total", openapi3.NewIntegerSchema().WithMin(1)).
		WithProperty("autoplay", openapi3.NewBoolSchema()).
		WithProperty("delay", openapi3.NewStringSchema()).
		WithProperty("delay_ms", openapi3.NewInt64Schema()).
		WithProperty("slides", openapi3.NewArraySchema().WithItems(slide)).
		WithProperty("active", openapi3.NewArraySchema().WithItems(openapi3.NewBoolSchema()))
}

func errorSchema() *openapi3.Schema {
	return openapi3.NewObjectSchema().WithProperty("error", openapi3.NewStringSchema())
}
