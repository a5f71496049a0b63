package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Vector2 is the canonical live value of TypeVector2 properties.
type Vector2 struct {
	X float64 `json:"x" yaml:"x" toml:"x"`
	Y float64 `json:"y" yaml:"y" toml:"y"`
}

// Vector3 is the canonical live value of TypeVector3 and TypeEuler properties.
type Vector3 struct {
	X float64 `json:"x" yaml:"x" toml:"x"`
	Y float64 `json:"y" yaml:"y" toml:"y"`
	Z float64 `json:"z" yaml:"z" toml:"z"`
}

// Vec3 is shorthand for a Vector3 literal.
func Vec3(x, y, z float64) Vector3 { return Vector3{X: x, Y: y, Z: z} }

// Vec2 is shorthand for a Vector2 literal.
func Vec2(x, y float64) Vector2 { return Vector2{X: x, Y: y} }

// Scale multiplies every component by f.
func (v Vector3) Scale(f float64) Vector3 { return Vector3{v.X * f, v.Y * f, v.Z * f} }

// Add returns the component-wise sum.
func (v Vector3) Add(o Vector3) Vector3 { return Vector3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

const (
	degToRad = math.Pi / 180
	radToDeg = 180 / math.Pi
)

// Radians converts degrees to radians.
func Radians(deg float64) float64 { return deg * degToRad }

// Degrees converts radians to degrees, rounded to nine decimals so that a
// degrees -> radians -> degrees trip reproduces the authored value.
func Degrees(rad float64) float64 { return roundTo(rad*radToDeg, 1e9) }

func roundTo(v, scale float64) float64 {
	r := math.Round(v*scale) / scale
	if r == 0 {
		return 0 // drop negative zero
	}
	return r
}

// Number converts any numeric document value to float64.
func Number(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

// ParseVector3 reads an array-of-numbers or {x,y,z} shorthand. Missing or
// invalid components take the fallback's value; it never fails.
func ParseVector3(raw any, fallback Vector3) Vector3 {
	out := fallback
	switch v := raw.(type) {
	case Vector3:
		return v
	case *Vector3:
		if v != nil {
			return *v
		}
	case Vector2:
		out.X, out.Y = v.X, v.Y
	case []float64:
		comps := []*float64{&out.X, &out.Y, &out.Z}
		for i := 0; i < len(v) && i < 3; i++ {
			*comps[i] = v[i]
		}
	case []any:
		comps := []*float64{&out.X, &out.Y, &out.Z}
		for i := 0; i < len(v) && i < 3; i++ {
			if f, ok := Number(v[i]); ok && !math.IsNaN(f) {
				*comps[i] = f
			}
		}
	case map[string]any:
		for key, dst := range map[string]*float64{"x": &out.X, "y": &out.Y, "z": &out.Z} {
			if f, ok := Number(v[key]); ok && !math.IsNaN(f) {
				*dst = f
			}
		}
	}
	return out
}

// ParseVector2 is the two-component variant of ParseVector3.
func ParseVector2(raw any, fallback Vector2) Vector2 {
	if v, ok := raw.(Vector2); ok {
		return v
	}
	v3 := ParseVector3(raw, Vector3{X: fallback.X, Y: fallback.Y})
	return Vector2{X: v3.X, Y: v3.Y}
}

// Decode converts a document value into the canonical live value for typ.
// current is the property's present live value and serves as the fallback
// for partially specified vectors.
func Decode(typ Type, raw any, current any) (any, error) {
	switch typ {
	case TypeString, TypeNodeRef, TypeEnum:
		if raw == nil {
			return "", nil
		}
		if s, ok := raw.(string); ok {
			return s, nil
		}
		if typ == TypeNodeRef {
			return nil, fmt.Errorf("node reference must be a string, got %T", raw)
		}
		return fmt.Sprint(raw), nil
	case TypeNumber:
		f, ok := Number(raw)
		if !ok {
			return nil, fmt.Errorf("expected number, got %T", raw)
		}
		return f, nil
	case TypeInteger:
		f, ok := Number(raw)
		if !ok || f != math.Trunc(f) {
			return nil, fmt.Errorf("expected integer, got %v", raw)
		}
		return int(f), nil
	case TypeAngle:
		f, ok := Number(raw)
		if !ok {
			return nil, fmt.Errorf("expected angle in degrees, got %T", raw)
		}
		return Radians(f), nil
	case TypeBool:
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("expected bool, got %T", raw)
		}
		return b, nil
	case TypeVector2:
		fb, _ := current.(Vector2)
		return ParseVector2(raw, fb), nil
	case TypeVector3:
		fb, _ := current.(Vector3)
		return ParseVector3(raw, fb), nil
	case TypeEuler:
		cur, _ := current.(Vector3)
		deg := ParseVector3(raw, Vector3{Degrees(cur.X), Degrees(cur.Y), Degrees(cur.Z)})
		return Vector3{Radians(deg.X), Radians(deg.Y), Radians(deg.Z)}, nil
	case TypeColor:
		return decodeColor(raw)
	case TypeObject:
		if raw == nil {
			return map[string]any(nil), nil
		}
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected object, got %T", raw)
		}
		return Clone(m), nil
	}
	return Clone(raw), nil
}

// Encode converts a canonical live value into its document form.
func Encode(typ Type, value any) any {
	switch typ {
	case TypeVector2:
		v := ParseVector2(value, Vector2{})
		return []float64{v.X, v.Y}
	case TypeVector3:
		v := ParseVector3(value, Vector3{})
		return []float64{v.X, v.Y, v.Z}
	case TypeEuler:
		v := ParseVector3(value, Vector3{})
		return []float64{Degrees(v.X), Degrees(v.Y), Degrees(v.Z)}
	case TypeAngle:
		f, _ := Number(value)
		return Degrees(f)
	}
	return Clone(value)
}

// DecodeProperty decodes raw for p and validates enum options.
func DecodeProperty(p Property, raw any, current any) (any, error) {
	v, err := Decode(p.Type, raw, current)
	if err != nil {
		return nil, fmt.Errorf("property %s: %w", p.Name, err)
	}
	if p.Type == TypeEnum && len(p.Hints.Options) > 0 && !contains(p.Hints.Options, v.(string)) {
		return nil, fmt.Errorf("property %s: %q is not one of %v", p.Name, v, p.Hints.Options)
	}
	return v, nil
}

func decodeColor(raw any) (any, error) {
	switch v := raw.(type) {
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		if !strings.HasPrefix(s, "#") {
			return nil, fmt.Errorf("color %q must start with #", v)
		}
		hex := s[1:]
		if len(hex) == 3 {
			hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
		}
		if len(hex) != 6 {
			return nil, fmt.Errorf("color %q must be #rgb or #rrggbb", v)
		}
		if _, err := strconv.ParseUint(hex, 16, 32); err != nil {
			return nil, fmt.Errorf("color %q: %w", v, err)
		}
		return "#" + hex, nil
	}
	if f, ok := Number(raw); ok && f >= 0 && f <= 0xffffff && f == math.Trunc(f) {
		return fmt.Sprintf("#%06x", int(f)), nil
	}
	return nil, fmt.Errorf("expected color, got %T", raw)
}
