package rivermesh

import "github.com/Faultbox/waterways/pkg/math"

// SmoothNormals averages normals at shared vertex positions so adjacent
// triangles shade continuously.
func SmoothNormals(vertices []Vertex) {
	const epsilon float32 = 0.001

	// Group vertices by quantized position for O(n) lookup
	posMap := make(map[[3]int32][]int)
	for i := range vertices {
		key := [3]int32{
			int32(vertices[i].Position[0] / epsilon),
			int32(vertices[i].Position[1] / epsilon),
			int32(vertices[i].Position[2] / epsilon),
		}
		posMap[key] = append(posMap[key], i)
	}

	for _, indices := range posMap {
		if len(indices) < 2 {
			continue
		}
		var sum math.Vec3
		for _, idx := range indices {
			sum = sum.Add(math.Vec3FromArray(vertices[idx].Normal))
		}
		avg := sum.Normalize().Array()
		for _, idx := range indices {
			vertices[idx].Normal = avg
		}
	}
}

// ComputeTangents fills per-vertex tangents from the primary UV channel.
// Vertices are taken three at a time as triangles. Each tangent is
// Gram-Schmidt orthogonalized against the vertex normal; w holds the
// bitangent handedness.
func ComputeTangents(vertices []Vertex) {
	for i := 0; i+2 < len(vertices); i += 3 {
		v0, v1, v2 := &vertices[i], &vertices[i+1], &vertices[i+2]
		p0 := math.Vec3FromArray(v0.Position)
		e1 := math.Vec3FromArray(v1.Position).Sub(p0)
		e2 := math.Vec3FromArray(v2.Position).Sub(p0)

		du1 := v1.UV[0] - v0.UV[0]
		dv1 := v1.UV[1] - v0.UV[1]
		du2 := v2.UV[0] - v0.UV[0]
		dv2 := v2.UV[1] - v0.UV[1]

		var t, b math.Vec3
		if denom := du1*dv2 - du2*dv1; denom != 0 {
			r := 1 / denom
			t = e1.Scale(dv2 * r).Sub(e2.Scale(dv1 * r))
			b = e2.Scale(du1 * r).Sub(e1.Scale(du2 * r))
		}

		for _, v := range []*Vertex{v0, v1, v2} {
			n := math.Vec3FromArray(v.Normal)
			tt := t.Sub(n.Scale(n.Dot(t)))
			if tt.LengthSqr() < 1e-8 {
				// Degenerate: any axis perpendicular to N.
				if absf(n.X) < 0.9 {
					tt = math.Vec3{X: 1}.Sub(n.Scale(n.X))
				} else {
					tt = math.Vec3{Y: 1}.Sub(n.Scale(n.Y))
				}
			}
			tt = tt.Normalize()
			w := float32(1)
			if n.Cross(tt).Dot(b) < 0 {
				w = -1
			}
			v.Tangent = [4]float32{tt.X, tt.Y, tt.Z, w}
		}
	}
}

func absf(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
