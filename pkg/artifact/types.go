package artifact

import (
	"github.com/repotools/artlist/pkg/maven"
)

// TypesFor converts a resolved extension/classifier map into artifact Types,
// deciding which extensions count as main deliverables.
//
// A pom is main only when no other main type is available; any other
// extension is main when at least one of its extension:classifier
// combinations is outside the auxiliary set. E.g. for
//
//	artifact-1.0.pom
//	artifact-1.0-sources.jar
//	artifact-1.0.war
//
// war is the single main type. With an additional artifact-1.0.jar both jar
// and war are main. With nothing but the pom, the pom itself is main.
func TypesFor(classifiers maven.Classifiers) []*Type {
	pomMain := true
	if _, hasPom := classifiers["pom"]; hasPom && len(classifiers) > 1 && containsMainCombination(classifiers) {
		pomMain = false
	}

	types := make([]*Type, 0, len(classifiers))
	for ext, set := range classifiers {
		main := ext == "pom" && pomMain
		if !main {
			for classifier := range set {
				if !auxiliaryExtClassifiers[ext+":"+classifier] {
					main = true
					break
				}
			}
		}
		t := &Type{Extension: ext, Main: main, Classifiers: make(map[string]bool, len(set))}
		for classifier := range set {
			t.Classifiers[classifier] = true
		}
		types = append(types, t)
	}
	return types
}

// containsMainCombination reports whether any extension:classifier
// combination falls outside the auxiliary set.
func containsMainCombination(classifiers maven.Classifiers) bool {
	for ext, set := range classifiers {
		for classifier := range set {
			if !auxiliaryExtClassifiers[ext+":"+classifier] {
				return true
			}
		}
	}
	return false
}
