package document

import "testing"

func TestNormalizeFlowArrays(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "vector under key",
			in:   "transform:\n  position:\n    - 1\n    - 2\n    - 3\n  scale:\n    - 1\n",
			want: "transform:\n  position: [1, 2, 3]\n  scale: [1]\n",
		},
		{
			name: "zero-indented sequence",
			in:   "size:\n- 0.5\n- -2\nname: x\n",
			want: "size: [0.5, -2]\nname: x\n",
		},
		{
			name: "key in sequence item",
			in:   "- pivot:\n    - 0\n    - 1\n",
			want: "- pivot: [0, 1]\n",
		},
		{
			name: "non-numeric left alone",
			in:   "position:\n  - a\n  - 2\n",
			want: "position:\n  - a\n  - 2\n",
		},
		{
			name: "other keys left alone",
			in:   "values:\n  - 1\n  - 2\n",
			want: "values:\n  - 1\n  - 2\n",
		},
		{
			name: "nested mapping left alone",
			in:   "position:\n  x: 1\n  y: 2\n",
			want: "position:\n  x: 1\n  y: 2\n",
		},
		{
			name: "already flow",
			in:   "rotation: [0, 90, 0]\n",
			want: "rotation: [0, 90, 0]\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeFlowArrays(tt.in); got != tt.want {
				t.Errorf("NormalizeFlowArrays:\n got %q\nwant %q", got, tt.want)
			}
		})
	}
}
