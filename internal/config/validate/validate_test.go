package validate

import "testing"

func TestConfigYAMLAcceptsMinimalDocument(t *testing.T) {
	if err := ConfigYAML([]byte("destination: /mnt/store\n")); err != nil {
		t.Fatalf("minimal config rejected: %v", err)
	}
}

func TestConfigYAMLRejectsWrongTypes(t *testing.T) {
	cases := []string{
		"destination: [a, b]\n",
		"retain: many\n",
		"installed_command: not-a-list\n",
		"unknown_field: 1\n",
		"logging: {level: shouting}\n",
	}
	for _, doc := range cases {
		if err := ConfigYAML([]byte(doc)); err == nil {
			t.Errorf("document %q passed validation", doc)
		}
	}
}

func TestConfigYAMLRejectsMalformedYAML(t *testing.T) {
	if err := ConfigYAML([]byte("destination: [\n")); err == nil {
		t.Fatal("malformed YAML passed validation")
	}
}

func TestAgainstSchemaBadSchema(t *testing.T) {
	if err := AgainstSchema("bad.json", "{", []byte("{}")); err == nil {
		t.Fatal("expected compile error for malformed schema")
	}
}
