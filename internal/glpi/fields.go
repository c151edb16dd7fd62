// Package glpi – FieldResolver
//
// GLPI installations number their search fields differently depending on
// version, plugins and language. FieldResolver reads listSearchOptions for
// tickets once, matches display names against known synonyms, and fills in
// fixed fallback ids for whatever it cannot find. The returned mapping is
// always complete.

package glpi

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/glpi-dashboard-backend/internal/cache"
	"github.com/tbourn/glpi-dashboard-backend/internal/utils"
)

// Fallback and fixed field ids of the Ticket search schema.
const (
	FallbackStatusField = "12"
	FallbackGroupField  = "8"
	FallbackTechField   = "5"
	DateCreationField   = "15"
	DateModField        = "19"
)

// Semantic field names.
const (
	FieldStatus       = "STATUS"
	FieldGroup        = "GROUP"
	FieldTech         = "TECH"
	FieldDateCreation = "DATE_CREATION"
	FieldDateMod      = "DATE_MOD"
)

// FieldMapping translates semantic field names to Ticket search field ids.
// Call ApplyFallbacks before use; after it every field is set.
type FieldMapping struct {
	Status       string
	Group        string
	Tech         string
	DateCreation string
	DateMod      string

	// Fallbacks lists the semantic names that were not discovered.
	Fallbacks []string
}

// ApplyFallbacks fills every unresolved field with its fixed id and records
// which names fell back. The date fields are never discovered and are not
// reported as fallbacks.
func (m *FieldMapping) ApplyFallbacks() {
	fill := func(dst *string, name, id string) {
		if *dst == "" {
			*dst = id
			m.Fallbacks = append(m.Fallbacks, name)
		}
	}
	fill(&m.Status, FieldStatus, FallbackStatusField)
	fill(&m.Group, FieldGroup, FallbackGroupField)
	fill(&m.Tech, FieldTech, FallbackTechField)
	m.DateCreation = DateCreationField
	m.DateMod = DateModField
}

// Complete reports whether every field is set.
func (m FieldMapping) Complete() bool {
	return m.Status != "" && m.Group != "" && m.Tech != "" && m.DateCreation != "" && m.DateMod != ""
}

// AsMap returns the mapping keyed by semantic name.
func (m FieldMapping) AsMap() map[string]string {
	return map[string]string{
		FieldStatus:       m.Status,
		FieldGroup:        m.Group,
		FieldTech:         m.Tech,
		FieldDateCreation: m.DateCreation,
		FieldDateMod:      m.DateMod,
	}
}

// Synonyms are the display names, in priority order, that identify a field
// across GLPI languages and versions.
var Synonyms = map[string][]string{
	FieldTech: {
		"Technician", "Assigned to", "Assigned to - Technician",
		"Técnico", "Técnico encarregado", "Atribuído a - Técnico", "Technicien",
	},
	FieldGroup: {
		"Technician group", "Group in charge", "Assigned to - Group",
		"Grupo técnico", "Grupo de técnicos", "Atribuído a - Grupo", "Groupe de techniciens",
	},
	FieldStatus: {"Status", "Estado", "Statut", "Situação"},
}

// SchemaLister is the subset of Client used by FieldResolver.
type SchemaLister interface {
	ListSearchOptions(ctx context.Context, entity string) (map[string]SearchOption, error)
}

const (
	fieldsCacheKey = "glpi_fields"
	fieldsEntity   = "Ticket"
)

// FieldResolver discovers and caches the Ticket FieldMapping.
type FieldResolver struct {
	api   SchemaLister
	cache *cache.TTLCache

	// TTL applies to fully discovered mappings; FallbackTTL to mappings that
	// needed at least one fallback, so discovery is retried sooner.
	TTL         time.Duration
	FallbackTTL time.Duration
}

// NewFieldResolver returns a resolver caching results in c for ttl.
func NewFieldResolver(api SchemaLister, c *cache.TTLCache, ttl time.Duration) *FieldResolver {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &FieldResolver{api: api, cache: c, TTL: ttl, FallbackTTL: time.Minute}
}

// Resolve returns the complete FieldMapping. It never fails: when the schema
// cannot be read every field uses its fallback id.
func (r *FieldResolver) Resolve(ctx context.Context) FieldMapping {
	if v, ok := r.cache.Get(fieldsCacheKey, fieldsEntity); ok {
		if m, ok := v.(FieldMapping); ok && m.Complete() {
			return m
		}
		r.cache.Invalidate(fieldsCacheKey, fieldsEntity)
	}

	ctx, span := otel.Tracer("glpi/FieldResolver").Start(ctx, "Resolve")
	defer span.End()

	var m FieldMapping
	opts, err := r.api.ListSearchOptions(ctx, fieldsEntity)
	if err != nil {
		log.Warn().Err(err).Msg("field discovery failed; using fallback ids")
	} else {
		m = Discover(opts)
	}
	m.ApplyFallbacks()

	ttl := r.TTL
	if len(m.Fallbacks) > 0 {
		ttl = r.FallbackTTL
		log.Info().Strs("fallbacks", m.Fallbacks).Msg("field mapping uses fallback ids")
	}
	span.SetAttributes(
		attribute.String("glpi.field.tech", m.Tech),
		attribute.String("glpi.field.group", m.Group),
		attribute.String("glpi.field.status", m.Status),
		attribute.Int("glpi.field.fallbacks", len(m.Fallbacks)),
	)
	span.AddEvent("resolved", trace.WithAttributes(attribute.Bool("from_schema", err == nil)))

	r.cache.Set(fieldsCacheKey, m, ttl, fieldsEntity)
	return m
}

// Discover matches descriptors against Synonyms. For each semantic name the
// synonyms are tried in order; within a synonym the lowest numeric field id
// wins. Unmatched names are left empty.
func Discover(opts map[string]SearchOption) FieldMapping {
	type desc struct {
		id   string
		num  int
		name string
	}
	descs := make([]desc, 0, len(opts))
	for id, o := range opts {
		n, err := strconv.Atoi(id)
		if err != nil {
			continue
		}
		descs = append(descs, desc{id: id, num: n, name: utils.FoldName(o.Name)})
	}
	sort.Slice(descs, func(i, j int) bool { return descs[i].num < descs[j].num })

	find := func(semantic string) string {
		for _, syn := range Synonyms[semantic] {
			want := utils.FoldName(syn)
			for _, d := range descs {
				if d.name == want {
					return d.id
				}
			}
		}
		return ""
	}

	return FieldMapping{
		Status: find(FieldStatus),
		Group:  find(FieldGroup),
		Tech:   find(FieldTech),
	}
}
