package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their form name so messages line up with the inputs.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// messages maps "<form field>.<tag>" to the message shown to the user.
var messages = map[string]string{
	"nombre.required":          "El nombre no puede estar vacío",
	"email.email":              "Email invalido",
	"email.required":           "Email invalido",
	"password.required":        "La contraseña es obligatoria",
	"password.min":             "La contraseña debe contener al menos 6 caracteres",
	"repetir-password.eqfield": "Las contraseñas deben coincidir",
	"titulo.required":          "El titulo del anuncio es obligatorio",
	"descripcion.required":     "La descripción no puede ir vacía",
	"descripcion.max":          "La descripción es muy larga",
	"categoria.required":       "Selecciona una categoría",
	"precio.required":          "Selecciona un rango de precios",
	"habitaciones.min":         "Selecciona la cantidad de habitaciones",
	"habitaciones.max":         "Selecciona la cantidad de habitaciones",
	"estacionamiento.min":      "Selecciona la cantidad de estacionamientos",
	"estacionamiento.max":      "Selecciona la cantidad de estacionamientos",
	"wc.min":                   "Selecciona la cantidad de baños",
	"wc.max":                   "Selecciona la cantidad de baños",
	"lat.required":             "Ubica la propiedad en el mapa",
	"lng.required":             "Ubica la propiedad en el mapa",
	"calle.required":           "Ubica la propiedad en el mapa",
	"mensaje.min":              "El mensaje no puede ir vacío o es muy corto",
	"mensaje.max":              "El mensaje es muy largo",
}

// validateStruct runs the struct tags of req and converts failures into a *ValidationError.
func validateStruct(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("failed to validate request: %w", err)
	}
	out := &ValidationError{}
	for _, e := range verrs {
		msg, ok := messages[e.Field()+"."+e.Tag()]
		if !ok {
			msg = fmt.Sprintf("El campo %s no es válido", e.Field())
		}
		out.Fields = append(out.Fields, FieldError{Field: e.Field(), Msg: msg})
	}
	return out
}
