package feed

import (
	"strings"
	"testing"
)

const sampleFeed = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom"
      xmlns:d="http://schemas.microsoft.com/ado/2007/08/dataservices"
      xmlns:m="http://schemas.microsoft.com/ado/2007/08/dataservices/metadata">
  <title type="text">Packages</title>
  <entry>
    <title type="text">Newtonsoft.Json</title>
    <summary type="html">&lt;b&gt;Popular&lt;/b&gt; JSON framework</summary>
    <content type="application/zip" src="https://feed.example/api/v2/package/Newtonsoft.Json/13.0.1"/>
    <m:properties>
      <d:Version>13.0.1</d:Version>
      <d:Dependencies>System.Memory:[4.5.0,):net45|System.Buffers::netstandard2.0</d:Dependencies>
      <d:IsPrerelease m:type="Edm.Boolean">false</d:IsPrerelease>
      <d:DownloadCount m:type="Edm.Int64">1000</d:DownloadCount>
    </m:properties>
  </entry>
  <entry>
    <title type="text">Serilog</title>
    <content type="application/zip" src="https://feed.example/api/v2/package/Serilog/3.0.0-beta.1"/>
    <m:properties>
      <d:Id>Serilog</d:Id>
      <d:Version>3.0.0-beta.1</d:Version>
      <d:IsPrerelease m:type="Edm.Boolean">true</d:IsPrerelease>
    </m:properties>
  </entry>
</feed>`

const sampleEntry = `<?xml version="1.0" encoding="utf-8"?>
<entry xmlns="http://www.w3.org/2005/Atom"
       xmlns:d="http://schemas.microsoft.com/ado/2007/08/dataservices"
       xmlns:m="http://schemas.microsoft.com/ado/2007/08/dataservices/metadata">
  <title type="text">Foo</title>
  <content type="application/zip" src="https://feed.example/api/v2/package/Foo/1.0.0"/>
  <m:properties>
    <d:Version>1.0.0</d:Version>
  </m:properties>
</entry>`

func TestParseFeed(t *testing.T) {
	entries, err := Parse([]byte(sampleFeed))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Parse() returned %d entries, want 2", len(entries))
	}

	first := entries[0]
	if got := first.PackageID(); got != "Newtonsoft.Json" {
		t.Errorf("PackageID() = %q, want Newtonsoft.Json", got)
	}
	if first.Properties.Version != "13.0.1" {
		t.Errorf("Version = %q, want 13.0.1", first.Properties.Version)
	}
	if first.Properties.IsPrerelease {
		t.Error("first entry should not be a pre-release")
	}
	if got := first.DownloadURL(); !strings.Contains(got, "/package/Newtonsoft.Json/13.0.1") {
		t.Errorf("DownloadURL() = %q", got)
	}

	second := entries[1]
	if got := second.PackageID(); got != "Serilog" {
		t.Errorf("PackageID() = %q, want Serilog (from properties)", got)
	}
	if !second.Properties.IsPrerelease {
		t.Error("second entry should be a pre-release")
	}
}

func TestParseSingleEntry(t *testing.T) {
	entries, err := Parse([]byte(sampleEntry))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Parse() returned %d entries, want 1", len(entries))
	}
	if entries[0].PackageID() != "Foo" || entries[0].Properties.Version != "1.0.0" {
		t.Errorf("unexpected entry: %+v", entries[0])
	}
}

func TestParseMalformed(t *testing.T) {
	if _, err := Parse([]byte("<feed><entry></feed>")); err == nil {
		t.Error("Parse() should fail on malformed XML")
	}
}

func TestDescriptionStripsHTML(t *testing.T) {
	entries, err := Parse([]byte(sampleFeed))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if got := entries[0].Description(); got != "Popular JSON framework" {
		t.Errorf("Description() = %q, want markup removed", got)
	}
}

func TestParseDependencies(t *testing.T) {
	deps := ParseDependencies("System.Memory:[4.5.0,):net45|System.Buffers::netstandard2.0|Bare")

	if len(deps) != 3 {
		t.Fatalf("got %d dependencies, want 3", len(deps))
	}
	if deps[0].ID != "System.Memory" || deps[0].Identifier.Version != "[4.5.0,)" || deps[0].TargetFramework != "net45" {
		t.Errorf("unexpected first dependency: %+v", deps[0])
	}
	if deps[1].ID != "System.Buffers" || deps[1].Identifier.Version != "" || deps[1].TargetFramework != "netstandard2.0" {
		t.Errorf("unexpected second dependency: %+v", deps[1])
	}
	if deps[2].ID != "Bare" || deps[2].Identifier.Version != "" {
		t.Errorf("unexpected third dependency: %+v", deps[2])
	}

	if got := ParseDependencies(""); got != nil {
		t.Errorf("empty string should yield nil, got %v", got)
	}
}

func TestFlattenDependenciesRoundTrip(t *testing.T) {
	flat := "A:[1.0.0,2.0.0):net45|B::net6.0"
	if got := FlattenDependencies(ParseDependencies(flat)); got != flat {
		t.Errorf("round trip = %q, want %q", got, flat)
	}
}
