package container

import "go.uber.org/zap"

// ContextualBuilder implements the fluent contextual binding API.
//
//	// Laravel: $app->when(PhotoController::class)->needs(Filesystem::class)->give(...)
//	c.When("PhotoController").Needs("Filesystem").Give(func(c *container.Container) any {
//	    return filesystem.NewS3(...)
//	})
type ContextualBuilder struct {
	container *Container
	concrete  string
	needs     string
}

// When starts a contextual binding chain for the class (or abstract) being
// built.
func (c *Container) When(concrete string) *ContextualBuilder {
	return &ContextualBuilder{container: c, concrete: concrete}
}

// Needs specifies which abstract the concrete type depends on. Prefix a
// parameter name with "$" to target a primitive parameter.
//
//	c.When("Uploader").Needs("$bucket").GiveValue("photos")
func (b *ContextualBuilder) Needs(abstract string) *ContextualBuilder {
	b.needs = abstract
	return b
}

// Give provides what the concrete type receives for the needed abstract. It
// accepts the same concretes as Bind except *Class: a string resolves that
// abstract, a function is used as a factory.
func (b *ContextualBuilder) Give(concrete any) error {
	var f Factory
	if name, ok := concrete.(string); ok {
		f = func(c *Container, p Params) (any, error) { return c.MakeWith(name, p) }
	} else {
		var err error
		if f, err = toFactory(concrete); err != nil {
			return err
		}
	}
	b.store(f)
	return nil
}

// GiveValue is a shorthand for Give when the value is a simple scalar or
// pre-built instance (no factory logic needed).
//
//	// Laravel: ->give('/tmp/photos')
//	c.When("PhotoController").Needs("$storagePath").GiveValue("/tmp/photos")
func (b *ContextualBuilder) GiveValue(value any) {
	b.store(func(*Container, Params) (any, error) { return value, nil })
}

func (b *ContextualBuilder) store(f Factory) {
	st := b.container.st
	st.mu.Lock()
	defer st.mu.Unlock()
	concreteKey := st.aliases.canonicalize(b.concrete)
	if _, ok := st.contextual[concreteKey]; !ok {
		st.contextual[concreteKey] = make(map[string]Factory)
	}
	st.contextual[concreteKey][b.needs] = f
	st.log.Debug("container: contextual binding",
		zap.String("when", concreteKey), zap.String("needs", b.needs))
}

// contextualFor returns the factory registered for concrete needing
// abstract, trying the alias as written and then its canonical key.
// Must hold mu.
func (s *state) contextualFor(concrete, abstract, key string) Factory {
	if concrete == "" {
		return nil
	}
	m, ok := s.contextual[concrete]
	if !ok {
		return nil
	}
	if f, ok := m[abstract]; ok {
		return f
	}
	if key != "" {
		return m[key]
	}
	return nil
}
