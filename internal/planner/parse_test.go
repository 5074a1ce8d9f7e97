package planner

import "testing"

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		wantErr bool
	}{
		{
			name:    "bare object",
			content: `{"nodes": []}`,
			want:    `{"nodes": []}`,
		},
		{
			name:    "fenced json block",
			content: "Вот граф:\n```json\n{\"nodes\": [1]}\n```\nГотово.",
			want:    `{"nodes": [1]}`,
		},
		{
			name:    "fence without language tag",
			content: "```\n{\"a\": 1}\n```",
			want:    `{"a": 1}`,
		},
		{
			name:    "prose around object",
			content: `Sure! Here is the plan: {"a": {"b": 2}} hope it helps`,
			want:    `{"a": {"b": 2}}`,
		},
		{
			name:    "no json at all",
			content: "I cannot build this workflow.",
			wantErr: true,
		},
		{
			name:    "braces but invalid json",
			content: "something {not json} here",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractJSON(tt.content)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("extractJSON = %q, want %q", got, tt.want)
			}
		})
	}
}
